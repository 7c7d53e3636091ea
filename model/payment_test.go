package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentValidateRequiresExactlyOneTarget(t *testing.T) {
	courseID := uint(1)
	lessonID := uint(2)

	tests := []struct {
		name    string
		payment Payment
		wantErr error
	}{
		{
			name:    "course only",
			payment: Payment{UserID: 1, PaidCourseID: &courseID, Amount: 100, Method: PaymentMethodCash},
			wantErr: nil,
		},
		{
			name:    "lesson only",
			payment: Payment{UserID: 1, PaidLessonID: &lessonID, Amount: 50, Method: PaymentMethodTransfer},
			wantErr: nil,
		},
		{
			name:    "neither",
			payment: Payment{UserID: 1, Amount: 100, Method: PaymentMethodCash},
			wantErr: ErrPaymentTargetMissing,
		},
		{
			name:    "both",
			payment: Payment{UserID: 1, PaidCourseID: &courseID, PaidLessonID: &lessonID, Amount: 100, Method: PaymentMethodCash},
			wantErr: ErrPaymentTargetBoth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payment.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPaymentBeforeSaveDelegatesToValidate(t *testing.T) {
	p := Payment{UserID: 1, Amount: 100, Method: PaymentMethodCash}
	assert.ErrorIs(t, p.BeforeSave(nil), ErrPaymentTargetMissing)
}
