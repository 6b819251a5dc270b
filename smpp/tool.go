package smpp

import (
	"strings"
	"unicode/utf8"

	"github.com/linxGnu/gosmpp/data"
	"github.com/linxGnu/gosmpp/pdu"

	"github.com/yyliziqiu/smsc/util"
)

// ============ Logger ============

func logDebug(s string, a ...any) {
	util.LogDebug(s, a...)
}

func logInfo(s string, a ...any) {
	util.LogInfo(s, a...)
}

func logWarn(s string, a ...any) {
	util.LogWarn(s, a...)
}

// ============ Message ============

// Address
// TON (Type of Number)
// 0  Unknown
// 1  International     with country code, e.g. +8613800000000
// 2  National          without country code
// 3  Network Specific  internal routing numbers, short codes
// 4  Subscriber Number
// 5  Alphanumeric      sender id such as "MyBrand"
// 6  Abbreviated
//
// NPI (Numbering Plan Indicator)
// 0  Unknown
// 1  ISDN / E.164
// 3  Data (X.121)
// 4  Telex
// 6  Land Mobile (E.212)
// 8  National
// 9  Private
// 10 ERMES
func Address(ton byte, npi byte, addr string) pdu.Address {
	ret := pdu.NewAddress()
	ret.SetTon(ton)
	ret.SetNpi(npi)
	_ = ret.SetAddress(addr)
	return ret
}

func Message(s string) pdu.ShortMessage {
	sm, _ := pdu.NewShortMessageWithEncoding(s, data.FindEncoding(s))
	return sm
}

func Gsm7bitMessage(s string) pdu.ShortMessage {
	sm, _ := pdu.NewShortMessageWithEncoding(s, data.GSM7BIT)
	return sm
}

func Ucs2Message(s string) pdu.ShortMessage {
	sm, _ := pdu.NewShortMessageWithEncoding(s, data.UCS2)
	return sm
}

func BinaryMessage(s []byte) pdu.ShortMessage {
	sm, _ := pdu.NewBinaryShortMessageWithEncoding(s, data.BINARY8BIT2)
	return sm
}

// MessageText decodes sm. Encodings gosmpp cannot decode, such as the binary
// coding SMSCs use for receipts, come back as the raw bytes.
func MessageText(sm *pdu.ShortMessage) (string, error) {
	text, err := sm.GetMessage()
	if err == nil {
		return text, nil
	}

	raw, rerr := sm.GetMessageData()
	if rerr != nil || len(raw) == 0 {
		return "", err
	}

	return string(raw), nil
}

// ============ Other ============

const (
	Gsm7bitBasicChars = " .,:;!?'()+-*/_%&#<=>@£$¥\"\n\r\fØøÅåΔΦΓΛΩΠΨΣΘΞÆæßÉ¤ÄÖÑÜ§¿äöñüàèéùìòÇ"
	Gsm7bitExtraChars = "[]{}^~|€\\"
)

// DetectMessage returns the length in septets or characters, the number of
// segments and whether s fits the GSM 7-bit alphabet.
func DetectMessage(s string) (int, int, bool) {
	isGsm := true
	extra := 0
	for _, r := range s {
		if !IsGsm7bitBasicChar(r) {
			if IsGsm7bitExtraChar(r) {
				extra++
			} else {
				isGsm = false
				break
			}
		}
	}

	var msgLen, maxLen, segLen int
	if isGsm {
		msgLen = utf8.RuneCountInString(s) + extra
		maxLen = 160
		segLen = 153
	} else {
		msgLen = utf8.RuneCountInString(s)
		maxLen = 70
		segLen = 67
	}

	slices := 1
	if msgLen > maxLen {
		offset := 0
		if msgLen%segLen > 0 {
			offset = 1
		}
		slices = msgLen/segLen + offset
	}

	return msgLen, slices, isGsm
}

func IsGsm7bitBasicChar(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	if r >= 'A' && r <= 'Z' {
		return true
	}
	return strings.ContainsRune(Gsm7bitBasicChars, r)
}

func IsGsm7bitExtraChar(r rune) bool {
	return strings.ContainsRune(Gsm7bitExtraChars, r)
}
