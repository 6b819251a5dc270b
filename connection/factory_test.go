package connection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yyliziqiu/smsc/client"
	"github.com/yyliziqiu/smsc/config"
)

type recorder struct {
	events []string
}

func (r *recorder) add(e string) {
	r.events = append(r.events, e)
}

type fakeSender struct {
	kind     string
	name     string
	rec      *recorder
	delegate client.SenderClient
	setupErr error
}

func (s *fakeSender) ID() string { return s.name }

func (s *fakeSender) Setup() error {
	if s.delegate != nil {
		return s.delegate.Setup()
	}
	s.rec.add("setup-sender:" + s.name)
	return s.setupErr
}

func (s *fakeSender) Send(_ context.Context, msg client.Message) client.MessageResponse {
	return client.SuccessResponse(msg, s.name, s.kind)
}

func (s *fakeSender) Close() error {
	s.rec.add("close-sender:" + s.name)
	return nil
}

type fakeResponse struct {
	name     string
	rec      *recorder
	handler  *client.ResponseSessionHandler
	setupErr error
}

func (r *fakeResponse) ID() string { return r.name }

func (r *fakeResponse) Setup(handler *client.ResponseSessionHandler) error {
	r.rec.add("setup-response:" + r.name)
	r.handler = handler
	return r.setupErr
}

func (r *fakeResponse) Close() error {
	r.rec.add("close-response:" + r.name)
	return nil
}

type fakeClients struct {
	rec         *recorder
	senderErr   map[string]error
	responseErr map[string]error
	generators  []client.ResultGenerator
	parsers     []client.TypeOfAddressParser
}

func newFakeClients() *fakeClients {
	return &fakeClients{
		rec:         &recorder{},
		senderErr:   map[string]error{},
		responseErr: map[string]error{},
	}
}

func (f *fakeClients) MockSender(name string, generator client.ResultGenerator) client.SenderClient {
	f.rec.add("mock:" + name)
	f.generators = append(f.generators, generator)
	return &fakeSender{kind: "mock", name: name, rec: f.rec}
}

func (f *fakeClients) StandardSender(conf config.Effective, parser client.TypeOfAddressParser) client.SenderClient {
	f.rec.add("standard-sender:" + conf.Name)
	f.parsers = append(f.parsers, parser)
	return &fakeSender{kind: "standard", name: conf.Name, rec: f.rec, setupErr: f.senderErr[conf.Name]}
}

func (f *fakeClients) TestSender(delegate client.SenderClient, conf config.Effective, generator client.ResultGenerator) client.SenderClient {
	f.rec.add("test-sender:" + conf.Name)
	f.generators = append(f.generators, generator)
	return &fakeSender{kind: "test", name: conf.Name, rec: f.rec, delegate: delegate}
}

func (f *fakeClients) StandardResponse(conf config.Effective) client.ResponseClient {
	f.rec.add("standard-response:" + conf.Name)
	return &fakeResponse{name: conf.Name, rec: f.rec, setupErr: f.responseErr[conf.Name]}
}

func newProps(defaultMode config.ConnectionMode, setup bool) *config.Properties {
	props := config.NewProperties()
	props.Defaults.ConnectionMode = defaultMode
	props.SetupRightAway = setup
	return props
}

func kindOf(s client.SenderClient) string {
	if fs, ok := s.(*fakeSender); ok {
		return fs.kind
	}
	return ""
}

func TestBuildStandardAndMock(t *testing.T) {
	props := newProps(config.ModeStandard, true)
	props.Add("A", &config.Smsc{})
	props.Add("B", &config.Smsc{ConnectionMode: config.ModeMock})

	clients := newFakeClients()
	consumer := client.DeliveryReportConsumerFunc(func(client.DeliveryReport) {})

	holder, err := NewFactory(props, nil, consumer, nil, clients).Holder()
	if err != nil {
		t.Fatal(err)
	}

	if holder.Len() != 2 || !reflect.DeepEqual(holder.Names(), []string{"A", "B"}) {
		t.Fatalf("names = %v", holder.Names())
	}

	a, _ := holder.Get("A")
	if kindOf(a.Sender()) != "standard" || a.Response() == nil {
		t.Errorf("A: sender %s, response %v", kindOf(a.Sender()), a.Response())
	}
	b, _ := holder.Get("B")
	if kindOf(b.Sender()) != "mock" || b.Response() != nil {
		t.Errorf("B: sender %s, response %v", kindOf(b.Sender()), b.Response())
	}

	// Connections are shared read only: All, Get and the getters agree.
	all := holder.All()
	all[0] = nil
	if again, _ := holder.Get("A"); again != a || again.Name() != "A" || again.Sender() != a.Sender() {
		t.Error("connection A changed between lookups")
	}
	if holder.All()[0] != a {
		t.Error("All exposes the internal list")
	}

	want := []string{
		"standard-sender:A", "standard-response:A",
		"setup-sender:A", "setup-response:A",
		"mock:B",
	}
	if !reflect.DeepEqual(clients.rec.events, want) {
		t.Errorf("events = %v, want %v", clients.rec.events, want)
	}

	h := a.Response().(*fakeResponse).handler
	if h == nil || h.Client() != a.Response() {
		t.Fatal("handler not bound to the response client of A")
	}
	if _, ok := h.Consumer().(client.DeliveryReportConsumerFunc); !ok {
		t.Errorf("handler consumer = %T", h.Consumer())
	}
}

func TestBuildTestModeWithoutSetup(t *testing.T) {
	props := newProps(config.ModeTest, false)
	props.Add("C", &config.Smsc{})

	clients := newFakeClients()

	holder, err := NewFactory(props, nil, nil, nil, clients).Holder()
	if err != nil {
		t.Fatal(err)
	}

	c, ok := holder.Get("C")
	if !ok {
		t.Fatal("C missing")
	}
	if kindOf(c.Sender()) != "test" || c.Response() == nil {
		t.Errorf("C: sender %s, response %v", kindOf(c.Sender()), c.Response())
	}
	if kindOf(c.Sender().(*fakeSender).delegate) != "standard" {
		t.Error("test sender does not wrap a standard sender")
	}

	want := []string{"standard-sender:C", "test-sender:C", "standard-response:C"}
	if !reflect.DeepEqual(clients.rec.events, want) {
		t.Errorf("events = %v, want %v", clients.rec.events, want)
	}

	// Deferred setup keeps the same order.
	if err = c.Setup(nil); err != nil {
		t.Fatal(err)
	}
	want = append(want, "setup-sender:C", "setup-response:C")
	if !reflect.DeepEqual(clients.rec.events, want) {
		t.Errorf("events = %v, want %v", clients.rec.events, want)
	}
}

func TestBuildMockNeverSetup(t *testing.T) {
	for _, setup := range []bool{true, false} {
		props := newProps(config.ModeMock, setup)
		props.Add("M1", &config.Smsc{})
		props.Add("M2", &config.Smsc{})

		clients := newFakeClients()
		holder, err := NewFactory(props, nil, nil, nil, clients).Holder()
		if err != nil {
			t.Fatal(err)
		}

		for _, c := range holder.All() {
			if c.Response() != nil {
				t.Errorf("%s has a response client", c.Name())
			}
		}
		for _, e := range clients.rec.events {
			if e == "setup-sender:M1" || e == "setup-sender:M2" {
				t.Errorf("setup %t: mock sender set up", setup)
			}
		}
	}
}

func TestBuildOverrideWins(t *testing.T) {
	props := newProps(config.ModeMock, false)
	props.Add("S", &config.Smsc{ConnectionMode: config.ModeStandard})
	props.Add("T", &config.Smsc{ConnectionMode: config.ModeTest})
	props.Add("D", &config.Smsc{})

	holder, err := NewFactory(props, nil, nil, nil, newFakeClients()).Holder()
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{"S": "standard", "T": "test", "D": "mock"}
	for name, kind := range want {
		c, _ := holder.Get(name)
		if kindOf(c.Sender()) != kind {
			t.Errorf("%s: sender %s, want %s", name, kindOf(c.Sender()), kind)
		}
	}
}

func TestBuildUnrecognizedMode(t *testing.T) {
	props := newProps(config.ModeStandard, true)
	props.Add("A", &config.Smsc{})
	props.Add("D", &config.Smsc{ConnectionMode: config.ConnectionMode(42)})

	clients := newFakeClients()
	holder, err := NewFactory(props, nil, nil, nil, clients).Holder()

	if holder != nil {
		t.Error("partial holder returned")
	}
	var me *config.UnrecognizedModeError
	if !errors.As(err, &me) || me.Name != "D" {
		t.Fatalf("got %v, want UnrecognizedModeError for D", err)
	}
	if !errors.Is(err, config.ErrUnrecognizedMode) {
		t.Error("error does not match ErrUnrecognizedMode")
	}
	if len(clients.rec.events) != 0 {
		t.Errorf("clients built before the failure: %v", clients.rec.events)
	}
}

func TestBuildMissingDefault(t *testing.T) {
	props := newProps(config.ModeUnset, true)
	props.Add("A", &config.Smsc{})

	_, err := NewFactory(props, nil, nil, nil, newFakeClients()).Holder()
	if !errors.Is(err, config.ErrMissingDefault) {
		t.Fatalf("got %v, want ErrMissingDefault", err)
	}
}

func TestBuildSetupFailureClosesBuilt(t *testing.T) {
	props := newProps(config.ModeStandard, true)
	props.Add("A", &config.Smsc{})
	props.Add("B", &config.Smsc{})
	props.Add("C", &config.Smsc{})

	boom := errors.New("connection refused")
	clients := newFakeClients()
	clients.senderErr["B"] = boom

	holder, err := NewFactory(props, nil, nil, nil, clients).Holder()
	if holder != nil || !errors.Is(err, boom) {
		t.Fatalf("got %v, %v", holder, err)
	}

	want := []string{
		"standard-sender:A", "standard-response:A", "setup-sender:A", "setup-response:A",
		"standard-sender:B", "standard-response:B", "setup-sender:B",
		"close-response:B", "close-sender:B", "close-response:A", "close-sender:A",
	}
	if !reflect.DeepEqual(clients.rec.events, want) {
		t.Errorf("events = %v, want %v", clients.rec.events, want)
	}
}

func TestBuildResponseFailure(t *testing.T) {
	props := newProps(config.ModeStandard, true)
	props.Add("A", &config.Smsc{})

	boom := errors.New("bind rejected")
	clients := newFakeClients()
	clients.responseErr["A"] = boom

	_, err := NewFactory(props, nil, nil, nil, clients).Holder()
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestHolderBuiltOnce(t *testing.T) {
	props := newProps(config.ModeStandard, true)
	props.Add("A", &config.Smsc{})

	clients := newFakeClients()
	factory := NewFactory(props, nil, nil, nil, clients)

	h1, err := factory.Holder()
	if err != nil {
		t.Fatal(err)
	}
	n := len(clients.rec.events)

	h2, _ := factory.Holder()
	if h1 != h2 {
		t.Error("holder rebuilt")
	}
	if len(clients.rec.events) != n {
		t.Errorf("setup ran again: %v", clients.rec.events)
	}
}

func TestBuildKeepsDeclarationOrder(t *testing.T) {
	props := newProps(config.ModeMock, false)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		props.Add(name, &config.Smsc{})
	}
	// Added behind Names, comes last in sorted order.
	props.Connections["beta"] = &config.Smsc{}

	holder, err := NewFactory(props, nil, nil, nil, newFakeClients()).Holder()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"zeta", "alpha", "mid", "beta"}
	if !reflect.DeepEqual(holder.Names(), want) {
		t.Errorf("names = %v, want %v", holder.Names(), want)
	}
}

func TestBuildPassesCollaborators(t *testing.T) {
	props := newProps(config.ModeTest, false)
	props.Add("T", &config.Smsc{})
	props.Add("M", &config.Smsc{ConnectionMode: config.ModeMock})

	gen := client.RandomGenerator{FailureRatio: 0.5}
	parser := client.UnknownTypeOfAddressParser{}
	clients := newFakeClients()

	if _, err := NewFactory(props, gen, nil, parser, clients).Holder(); err != nil {
		t.Fatal(err)
	}

	for _, g := range clients.generators {
		if g != client.ResultGenerator(gen) {
			t.Errorf("generator = %v, want %v", g, gen)
		}
	}
	if len(clients.parsers) != 1 || clients.parsers[0] != client.TypeOfAddressParser(parser) {
		t.Errorf("parsers = %v", clients.parsers)
	}
}

func TestHolderClose(t *testing.T) {
	props := newProps(config.ModeStandard, false)
	props.Add("A", &config.Smsc{})
	props.Add("B", &config.Smsc{ConnectionMode: config.ModeMock})

	clients := newFakeClients()
	holder, err := NewFactory(props, nil, nil, nil, clients).Holder()
	if err != nil {
		t.Fatal(err)
	}

	clients.rec.events = nil
	if err = holder.Close(); err != nil {
		t.Fatal(err)
	}
	want := []string{"close-sender:B", "close-response:A", "close-sender:A"}
	if !reflect.DeepEqual(clients.rec.events, want) {
		t.Errorf("events = %v, want %v", clients.rec.events, want)
	}

	if _, ok := holder.Get("missing"); ok {
		t.Error("unknown name found")
	}
	all := holder.All()
	all[0] = nil
	if c, _ := holder.Get("A"); holder.All()[0] != c {
		t.Error("All exposes the internal slice")
	}
}
