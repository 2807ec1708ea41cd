package record

import "testing"

func newProcessing() *Record {
	return &Record{ID: "r1", UserID: "u1", ImagePath: "uploads/x.png", Status: StatusProcessing}
}

func TestCompleteFromProcessing(t *testing.T) {
	r := newProcessing()
	if err := r.Complete("some text", 87.5); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if r.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", r.Status, StatusCompleted)
	}
	if r.ExtractedText != "some text" || r.Confidence != 87.5 {
		t.Errorf("completed record did not carry text/confidence: %+v", r)
	}
}

func TestFailFromProcessing(t *testing.T) {
	r := newProcessing()
	if err := r.Fail(); err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if r.Status != StatusFailed {
		t.Errorf("status = %q, want %q", r.Status, StatusFailed)
	}
	if r.ExtractedText != "" {
		t.Errorf("failed record must not carry extracted text")
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	failed := newProcessing()
	if err := failed.Fail(); err != nil {
		t.Fatalf("Fail() error: %v", err)
	}
	if err := failed.Complete("late text", 10); err == nil {
		t.Error("Complete() after Fail() must be rejected")
	}
	if failed.Status != StatusFailed || failed.ExtractedText != "" {
		t.Errorf("rejected transition mutated record: %+v", failed)
	}

	completed := newProcessing()
	if err := completed.Complete("text", 90); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if err := completed.Fail(); err == nil {
		t.Error("Fail() after Complete() must be rejected")
	}
	if completed.Status != StatusCompleted {
		t.Errorf("rejected transition mutated status: %q", completed.Status)
	}
}

func TestTerminal(t *testing.T) {
	if StatusProcessing.Terminal() {
		t.Error("processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
}
