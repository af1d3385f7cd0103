package checkout

import "testing"

func TestStepString(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{StepInformation, "Information"},
		{StepShipping, "Shipping"},
		{StepReviewCart, "ReviewCart"},
		{StepBilling, "Billing"},
		{StepPayment, "Payment"},
		{Step(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.step.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStepValid(t *testing.T) {
	for _, step := range steps {
		if !step.Valid() {
			t.Errorf("step %s should be valid", step)
		}
	}

	for _, step := range []Step{Step(-1), Step(5), Step(99)} {
		if step.Valid() {
			t.Errorf("step %d should be invalid", int(step))
		}
	}
}

func TestStepOrdering(t *testing.T) {
	if len(steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			t.Errorf("steps out of order at index %d: %s <= %s", i, steps[i], steps[i-1])
		}
	}
}
