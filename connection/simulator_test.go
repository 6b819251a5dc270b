package connection

import (
	"context"
	"testing"
	"time"

	"github.com/yyliziqiu/smsc/client"
	"github.com/yyliziqiu/smsc/config"
	"github.com/yyliziqiu/smsc/simulator"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestBuildAgainstSimulator(t *testing.T) {
	sim := simulator.New(simulator.Config{Users: map[string]string{"user": "pass"}})
	if err := sim.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sim.Close() }()

	host, port := sim.HostPort()

	props := config.NewProperties()
	props.Defaults.BindTimeout = 2 * time.Second
	props.Defaults.RequestTimeout = 2 * time.Second
	props.Defaults.RebindPeriod = 0
	props.Defaults.AllowedPhones = []string{"79001234567"}
	props.Add("real", &config.Smsc{Host: host, Port: port, Username: "user", Password: "pass"})
	props.Add("test", &config.Smsc{Host: host, Port: port, Username: "user", Password: "pass", ConnectionMode: config.ModeTest})
	props.Add("mock", &config.Smsc{ConnectionMode: config.ModeMock})

	reports := make(chan client.DeliveryReport, 4)
	consumer := client.DeliveryReportConsumerFunc(func(r client.DeliveryReport) {
		reports <- r
	})

	holder, err := NewFactory(props, nil, consumer, nil, nil).Holder()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = holder.Close() }()

	if !waitFor(func() bool { return sim.Sessions() == 4 }) {
		t.Errorf("simulator has %d sessions, want 4", sim.Sessions())
	}

	ctx := context.Background()

	standard, _ := holder.Get("real")
	resp := standard.Send(ctx, client.NewMessage("hello", "79001234567", "matrix"))
	if !resp.Success {
		t.Fatalf("send failed: %+v", resp.Err)
	}

	select {
	case r := <-reports:
		if r.MessageID != resp.SmscID {
			t.Errorf("receipt for %s, want %s", r.MessageID, resp.SmscID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no delivery report")
	}

	test, _ := holder.Get("test")
	if resp = test.Send(ctx, client.NewMessage("hello", "79990000000", "matrix")); !resp.Success {
		t.Fatalf("substituted send failed: %+v", resp.Err)
	}
	if n := len(sim.Submits()); n != 1 {
		t.Errorf("simulator got %d submits, want 1", n)
	}

	mock, _ := holder.Get("mock")
	if resp = mock.Send(ctx, client.NewMessage("hello", "79001234567", "matrix")); !resp.Success || resp.SmscName != "mock" {
		t.Errorf("mock send: %+v", resp)
	}
}

func TestBuildAgainstSimulatorBadCredentials(t *testing.T) {
	sim := simulator.New(simulator.Config{Users: map[string]string{"user": "pass"}})
	if err := sim.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sim.Close() }()

	host, port := sim.HostPort()

	props := config.NewProperties()
	props.Defaults.BindTimeout = 2 * time.Second
	props.Defaults.RebindPeriod = 0
	props.Add("good", &config.Smsc{Host: host, Port: port, Username: "user", Password: "pass"})
	props.Add("bad", &config.Smsc{Host: host, Port: port, Username: "user", Password: "nope"})

	holder, err := NewFactory(props, nil, nil, nil, nil).Holder()
	if err == nil || holder != nil {
		t.Fatalf("got %v, %v, want failure", holder, err)
	}

	if !waitFor(func() bool { return sim.Sessions() == 0 }) {
		t.Errorf("simulator still has %d sessions after the failed build", sim.Sessions())
	}
}
