package stt

import "testing"

func TestClassifyPartialTranscript(t *testing.T) {
	ev, ok := classifyServerMessage([]byte(`{"message_type":"partial_transcript","text":" hello there "}`))
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.kind != eventTranscript || ev.isFinal {
		t.Fatalf("expected non-final transcript, got %+v", ev)
	}
	if ev.text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", ev.text)
	}
}

func TestClassifyCommittedVariantsAreFinal(t *testing.T) {
	for _, mt := range []string{"committed_transcript", "committed_transcript_with_timestamps"} {
		ev, ok := classifyServerMessage([]byte(`{"message_type":"` + mt + `","text":"done"}`))
		if !ok || !ev.isFinal {
			t.Fatalf("%s: expected a final transcript, got ok=%v ev=%+v", mt, ok, ev)
		}
	}
}

func TestClassifyEmptyTranscriptDropped(t *testing.T) {
	if _, ok := classifyServerMessage([]byte(`{"message_type":"partial_transcript","text":"  "}`)); ok {
		t.Fatal("blank transcript should be dropped")
	}
}

func TestClassifySessionStartedIgnored(t *testing.T) {
	if _, ok := classifyServerMessage([]byte(`{"message_type":"session_started","session_id":"x"}`)); ok {
		t.Fatal("session_started should be ignored")
	}
}

func TestClassifyErrorEvents(t *testing.T) {
	cases := map[string]string{
		`{"message_type":"quota_exceeded_error","detail":"quota gone"}`:   "quota gone",
		`{"message_type":"rate_limited","error":"slow down"}`:             "slow down",
		`{"message_type":"insufficient_audio_activity","message":"shh"}`:  "shh",
		`{"message_type":"auth_error","detail":"bad key"}`:                "bad key",
		`{"message_type":"commit_throttled","message":"too many"}`:        "too many",
		`{"message_type":"session_time_limit_exceeded","detail":"limit"}`: "limit",
		`{"message_type":"error","message":"generic"}`:                    "generic",
	}
	for raw, want := range cases {
		ev, ok := classifyServerMessage([]byte(raw))
		if !ok || ev.kind != eventError {
			t.Errorf("%s: expected an error event", raw)
			continue
		}
		if ev.detail != want {
			t.Errorf("%s: expected detail %q, got %q", raw, want, ev.detail)
		}
	}
}

func TestClassifyUnknownAndMalformedDropped(t *testing.T) {
	if _, ok := classifyServerMessage([]byte(`{"message_type":"something_new"}`)); ok {
		t.Fatal("unknown message types should be dropped")
	}
	if _, ok := classifyServerMessage([]byte(`not json`)); ok {
		t.Fatal("malformed frames should be dropped")
	}
}
