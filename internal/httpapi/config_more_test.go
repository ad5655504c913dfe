package httpapi

import "testing"

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("expected default, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("expected default on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_PositiveSetsValue(t *testing.T) {
	SetMaxBodyBytes(1234)
	defer SetMaxBodyBytes(0)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetGenerateTimeoutSeconds_NormalizesNegativeToZero(t *testing.T) {
	SetGenerateTimeoutSeconds(-5)
	if generateTimeout != 0 {
		t.Fatalf("expected 0, got %d", generateTimeout)
	}
	SetGenerateTimeoutSeconds(3)
	defer SetGenerateTimeoutSeconds(0)
	if generateTimeout != 3 {
		t.Fatalf("expected 3, got %d", generateTimeout)
	}
}

func TestSetDefaultNPredict(t *testing.T) {
	SetDefaultNPredict(7)
	if defaultNPredict != 7 {
		t.Fatalf("got %d", defaultNPredict)
	}
	SetDefaultNPredict(0)
	if defaultNPredict != 128 {
		t.Fatalf("expected fallback 128, got %d", defaultNPredict)
	}
}
