package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/yyliziqiu/smsc/client"
	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/connection"
	"github.com/yyliziqiu/smsc/simulator"
	"github.com/yyliziqiu/smsc/smpp"
	"github.com/yyliziqiu/smsc/util"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "simulate" {
		err = simulate(os.Args[2:])
	} else {
		err = run(os.Args[1:])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("smsc", flag.ContinueOnError)

	var (
		path, level   string
		json          bool
		name, to      string
		from, text    string
		failure       float64
		sendTimeout   time.Duration
		keepConnected bool
	)
	fs.StringVarP(&path, "config", "c", "smpp.toml", "Configuration file")
	fs.StringVar(&level, "log-level", "info", "Log level")
	fs.BoolVar(&json, "log-json", false, "Log in JSON")
	fs.Float64Var(&failure, "failure-ratio", 0, "Share of failed results in mock and test mode")
	fs.StringVar(&name, "send", "", "Send one message through the named connection")
	fs.StringVar(&to, "to", "", "Destination msisdn")
	fs.StringVar(&from, "from", "", "Source address")
	fs.StringVar(&text, "text", "", "Message text")
	fs.DurationVar(&sendTimeout, "send-timeout", 30*time.Second, "Timeout of the send")
	fs.BoolVar(&keepConnected, "wait", true, "Stay connected until interrupted")

	if err := fs.Parse(args); err != nil {
		return err
	}

	util.SetLogger(util.NewLogger(level, json))

	props, err := config.Load(path)
	if err != nil {
		return err
	}

	var generator client.ResultGenerator = client.AlwaysSuccessGenerator{}
	if failure > 0 {
		generator = client.RandomGenerator{FailureRatio: failure}
	}

	consumer := client.DeliveryReportConsumerFunc(func(r client.DeliveryReport) {
		util.LogInfo("[Main] Delivery report, connection: %s, message id: %s, status: %s, error: %s", r.ResponseClientID, r.MessageID, r.Status, r.ErrorCode)
	})

	factory := connection.NewFactory(props, generator, consumer, nil, nil)

	holder, err := factory.Holder()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := holder.Close(); cerr != nil {
			util.LogWarn("[Main] Close connections failed, error: %v", cerr)
		}
	}()

	util.LogInfo("[Main] Connections ready: %s, sessions: %d", strings.Join(holder.Names(), ", "), len(smpp.GetSessions()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if name != "" {
		conn, ok := holder.Get(name)
		if !ok {
			return fmt.Errorf("unknown connection %s", name)
		}
		if !props.SetupRightAway {
			if err = conn.Setup(consumer); err != nil {
				return err
			}
		}

		sctx, cancel := context.WithTimeout(ctx, sendTimeout)
		resp := conn.Send(sctx, client.NewMessage(text, to, from))
		cancel()

		if !resp.Success {
			util.LogError("[Main] Send failed, connection: %s, error: %v", name, resp.Err)
		} else {
			util.LogInfo("[Main] Sent, connection: %s, smsc id: %s", name, resp.SmscID)
		}
	}

	if keepConnected {
		<-ctx.Done()
		util.LogInfo("[Main] Shutting down")
	}

	return nil
}

func simulate(args []string) error {
	fs := flag.NewFlagSet("smsc simulate", flag.ContinueOnError)

	var (
		listen, level string
		users         []string
		reject, fail  []string
		delay         time.Duration
	)
	fs.StringVarP(&listen, "listen", "l", ":2775", "Listen address")
	fs.StringVar(&level, "log-level", "info", "Log level")
	fs.StringSliceVar(&users, "user", nil, "Accepted system_id:password, repeatable")
	fs.StringSliceVar(&reject, "reject", nil, "Msisdns whose submits are rejected")
	fs.StringSliceVar(&fail, "fail", nil, "Msisdns whose receipts report UNDELIV")
	fs.DurationVar(&delay, "deliver-delay", time.Second, "Delay before a receipt is pushed")

	if err := fs.Parse(args); err != nil {
		return err
	}

	util.SetLogger(util.NewLogger(level, false))

	accounts := make(map[string]string, len(users))
	for _, u := range users {
		id, password, ok := strings.Cut(u, ":")
		if !ok {
			return fmt.Errorf("invalid user %q, want system_id:password", u)
		}
		accounts[id] = password
	}

	sim := simulator.New(simulator.Config{
		Listen:       listen,
		Users:        accounts,
		RejectPhones: reject,
		FailPhones:   fail,
		DeliverDelay: delay,
	})
	if err := sim.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	util.LogInfo("[Main] Shutting down simulator")

	return sim.Close()
}
