package event

import (
	"testing"

	"gmf-go/errcode"
)

type recordingReceiver struct {
	name string
	code errcode.Code
	got  []Packet
}

func (r *recordingReceiver) ReceiveEvent(pkt Packet) errcode.Code {
	r.got = append(r.got, pkt)
	return r.code
}

func TestReportInfoDeliversInOrder(t *testing.T) {
	a := &recordingReceiver{name: "a", code: errcode.OK}
	b := &recordingReceiver{name: "b", code: errcode.OK}
	c := &recordingReceiver{name: "c", code: errcode.OK}

	code := DeliverReportInfo([]Receiver{a, b, c}, Packet{Sub: InfoVideo, Payload: 42})
	if code != errcode.OK {
		t.Fatalf("ReportInfo: %v", code)
	}
	for _, r := range []*recordingReceiver{a, b, c} {
		if len(r.got) != 1 {
			t.Fatalf("%s: expected one delivery, got %d", r.name, len(r.got))
		}
		if r.got[0].Type != ReportInfo {
			t.Fatalf("%s: expected Type forced to ReportInfo", r.name)
		}
	}
}

func TestReportInfoShortCircuitsOnRejection(t *testing.T) {
	a := &recordingReceiver{name: "a", code: errcode.OK}
	b := &recordingReceiver{name: "b", code: errcode.Unsupported}
	c := &recordingReceiver{name: "c", code: errcode.OK}

	code := DeliverReportInfo([]Receiver{a, b, c}, Packet{Sub: InfoSound})
	if code != errcode.Unsupported {
		t.Fatalf("expected Unsupported propagated, got %v", code)
	}
	if len(c.got) != 0 {
		t.Fatal("expected delivery to stop at the rejecting receiver")
	}
}

func TestReportInfoSkipsNilReceivers(t *testing.T) {
	a := &recordingReceiver{code: errcode.OK}
	code := DeliverReportInfo([]Receiver{nil, a, nil}, Packet{})
	if code != errcode.OK {
		t.Fatalf("ReportInfo: %v", code)
	}
	if len(a.got) != 1 {
		t.Fatal("expected the non-nil receiver to still be delivered to")
	}
}

func TestPublishStateIsRetained(t *testing.T) {
	r := New("pipe-1")
	defer r.Close()

	r.PublishState(StateRunning)

	sub := r.SubscribeLifecycle()
	select {
	case msg := <-sub.Channel():
		pkt := msg.Payload.(Packet)
		if pkt.Type != ChangeState || pkt.Payload.(State) != StateRunning {
			t.Fatalf("unexpected packet: %+v", pkt)
		}
	default:
		t.Fatal("expected a retained message for a subscriber joining after publish")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateStarted:  "STARTED",
		StateRunning:  "RUNNING",
		StatePaused:   "PAUSED",
		StateStopped:  "STOPPED",
		StateFinished: "FINISHED",
		StateError:    "ERROR",
		StateNone:     "NONE",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
