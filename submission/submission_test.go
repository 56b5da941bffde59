package submission

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text       string
		success    bool
		err        string
		definitive bool
	}{
		{"Accepted", true, "", true},
		{"  Accepted\n", true, "", true},
		{"Wrong Answer", false, "Wrong Answer", true},
		{"Runtime Error", false, "Runtime Error", true},
		{"", false, "", false},
	}
	for _, tt := range tests {
		got := Classify(tt.text)
		if got.Success != tt.success {
			t.Errorf("Classify(%q).Success = %v, want %v", tt.text, got.Success, tt.success)
		}
		if got.Error != tt.err {
			t.Errorf("Classify(%q).Error = %q, want %q", tt.text, got.Error, tt.err)
		}
		if got.Definitive() != tt.definitive {
			t.Errorf("Classify(%q).Definitive() = %v, want %v", tt.text, got.Definitive(), tt.definitive)
		}
	}
}

func TestUnknownIsNotDefinitive(t *testing.T) {
	o := Unknown()
	if o.Definitive() {
		t.Fatal("placeholder must not be definitive")
	}
	if o.Success || o.Error != "" {
		t.Fatalf("placeholder = %+v", o)
	}
	if o.ResultText != StatusUnknown {
		t.Fatalf("ResultText = %q", o.ResultText)
	}
}

func TestActionOf(t *testing.T) {
	action, err := ActionOf([]byte(`{"action":"saveProblemInfo","data":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if action != ActionSave {
		t.Fatalf("action = %q", action)
	}

	if _, err := ActionOf([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("expected error for missing action")
	}
	if _, err := ActionOf([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestUnmarshalSnapshot_NilExamples(t *testing.T) {
	s, err := UnmarshalSnapshot([]byte(`{"title":"Two Sum","submissionResult":{"success":true,"resultText":"Accepted"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Examples == nil || len(s.Examples) != 0 {
		t.Fatalf("Examples = %#v, want empty slice", s.Examples)
	}
	if !s.SubmissionResult.Definitive() {
		t.Fatal("accepted outcome should be definitive")
	}
}
