package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mmeshcher/ebuy-system/internal/crypt"
	"github.com/mmeshcher/ebuy-system/internal/model"
	"github.com/mmeshcher/ebuy-system/internal/repository"
)

func TestAddPaymentMethod_EncryptsAndExtractsLastFour(t *testing.T) {
	repo := &stubRepo{createPaymentID: 7}
	svc := newTestService(t, repo)

	id, err := svc.AddPaymentMethod(context.Background(), 42, PaymentMethodInput{
		CardType:       "visa",
		CardholderName: "Ann Lee",
		CardNumber:     "4111 1111 1111 1234",
		ExpiryDate:     "12/30",
		CVV:            "123",
		BillingZip:     "10001",
	})
	if err != nil {
		t.Fatalf("AddPaymentMethod error: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}

	pm := repo.createdPayment
	if pm.LastFourDigits != "1234" {
		t.Fatalf("lastFour = %q, want 1234", pm.LastFourDigits)
	}
	if strings.Contains(pm.CardNumberEncrypted, "4111") {
		t.Fatalf("card number must not be stored in plaintext")
	}

	number, err := crypt.Decrypt(pm.CardNumberEncrypted, "test_payment_key")
	if err != nil {
		t.Fatalf("decrypt stored number: %v", err)
	}
	if number != "4111111111111234" {
		t.Fatalf("stored number = %q, want normalized 4111111111111234", number)
	}

	cvv, err := crypt.Decrypt(pm.CVVEncrypted, "test_payment_key")
	if err != nil {
		t.Fatalf("decrypt stored cvv: %v", err)
	}
	if cvv != "123" {
		t.Fatalf("stored cvv = %q, want 123", cvv)
	}
}

func TestGetPaymentMethod_MasksNumber(t *testing.T) {
	encNumber, err := crypt.Encrypt("4111111111111234", "test_payment_key")
	if err != nil {
		t.Fatalf("encrypt fixture: %v", err)
	}

	repo := &stubRepo{
		getPayment: &model.PaymentMethod{
			ID:                  7,
			OwnerUserID:         42,
			CardNumberEncrypted: encNumber,
			LastFourDigits:      "1234",
		},
	}
	svc := newTestService(t, repo)

	_, masked, err := svc.GetPaymentMethod(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("GetPaymentMethod error: %v", err)
	}
	if masked != "**** **** **** 1234" {
		t.Fatalf("masked = %q, want **** **** **** 1234", masked)
	}
}

func TestGetPaymentMethod_DecryptFailureFallsBackToStoredLastFour(t *testing.T) {
	repo := &stubRepo{
		getPayment: &model.PaymentMethod{
			ID:                  7,
			OwnerUserID:         42,
			CardNumberEncrypted: "not-valid-base64!!!",
			LastFourDigits:      "9876",
		},
	}
	svc := newTestService(t, repo)

	_, masked, err := svc.GetPaymentMethod(context.Background(), 42, 7)
	if err != nil {
		t.Fatalf("GetPaymentMethod error: %v", err)
	}
	if masked != "**** **** **** 9876" {
		t.Fatalf("masked = %q, want fallback **** **** **** 9876", masked)
	}
}

func TestGetPaymentMethod_NotFound(t *testing.T) {
	repo := &stubRepo{getPaymentErr: repository.ErrPaymentMethodNotFound}
	svc := newTestService(t, repo)

	_, _, err := svc.GetPaymentMethod(context.Background(), 42, 7)
	if !errors.Is(err, repository.ErrPaymentMethodNotFound) {
		t.Fatalf("expected ErrPaymentMethodNotFound, got %v", err)
	}
}

func TestUpdatePaymentMethod_MaskedNumberIsIgnored(t *testing.T) {
	repo := &stubRepo{getPayment: &model.PaymentMethod{ID: 7, OwnerUserID: 42}}
	svc := newTestService(t, repo)

	masked := "**** **** **** 1234"
	cardType := "mastercard"
	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{
		CardType:   &cardType,
		CardNumber: &masked,
	})
	if err != nil {
		t.Fatalf("UpdatePaymentMethod error: %v", err)
	}

	upd := repo.updatedPayment
	if upd.CardNumberEncrypted != nil {
		t.Fatalf("masked number must not be re-encrypted")
	}
	if upd.LastFourDigits != nil {
		t.Fatalf("masked number must not change last four digits")
	}
	if upd.CardType == nil || *upd.CardType != "mastercard" {
		t.Fatalf("other supplied fields must still be updated, got %+v", upd)
	}
}

func TestUpdatePaymentMethod_FreshNumberIsReencrypted(t *testing.T) {
	repo := &stubRepo{getPayment: &model.PaymentMethod{ID: 7, OwnerUserID: 42}}
	svc := newTestService(t, repo)

	number := "5500 0000 0000 0004"
	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{
		CardNumber: &number,
	})
	if err != nil {
		t.Fatalf("UpdatePaymentMethod error: %v", err)
	}

	upd := repo.updatedPayment
	if upd.CardNumberEncrypted == nil {
		t.Fatalf("fresh number must be re-encrypted")
	}
	if upd.LastFourDigits == nil || *upd.LastFourDigits != "0004" {
		t.Fatalf("lastFour = %v, want 0004", upd.LastFourDigits)
	}

	stored, err := crypt.Decrypt(*upd.CardNumberEncrypted, "test_payment_key")
	if err != nil {
		t.Fatalf("decrypt updated number: %v", err)
	}
	if stored != "5500000000000004" {
		t.Fatalf("stored number = %q, want 5500000000000004", stored)
	}
}

func TestUpdatePaymentMethod_CVVAlwaysReencrypted(t *testing.T) {
	repo := &stubRepo{getPayment: &model.PaymentMethod{ID: 7, OwnerUserID: 42}}
	svc := newTestService(t, repo)

	cvv := "999"
	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{CVV: &cvv})
	if err != nil {
		t.Fatalf("UpdatePaymentMethod error: %v", err)
	}

	upd := repo.updatedPayment
	if upd.CVVEncrypted == nil {
		t.Fatalf("supplied cvv must be re-encrypted")
	}
}

func TestUpdatePaymentMethod_NoFields(t *testing.T) {
	repo := &stubRepo{getPayment: &model.PaymentMethod{ID: 7, OwnerUserID: 42}}
	svc := newTestService(t, repo)

	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{})
	if !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Fatalf("expected ErrNoFieldsToUpdate, got %v", err)
	}
	if repo.updatedPayment != nil {
		t.Fatalf("empty update must not reach storage")
	}
}

func TestUpdatePaymentMethod_OnlyMaskedNumberIsNoFields(t *testing.T) {
	repo := &stubRepo{getPayment: &model.PaymentMethod{ID: 7, OwnerUserID: 42}}
	svc := newTestService(t, repo)

	masked := "**** **** **** 1234"
	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{CardNumber: &masked})
	if !errors.Is(err, ErrNoFieldsToUpdate) {
		t.Fatalf("expected ErrNoFieldsToUpdate, got %v", err)
	}
}

func TestUpdatePaymentMethod_OwnershipCheckedBeforeFields(t *testing.T) {
	repo := &stubRepo{getPaymentErr: repository.ErrPaymentMethodNotFound}
	svc := newTestService(t, repo)

	// Пустое обновление чужой записи — not found, а не ошибка валидации.
	err := svc.UpdatePaymentMethod(context.Background(), 42, 7, PaymentMethodUpdateInput{})
	if !errors.Is(err, repository.ErrPaymentMethodNotFound) {
		t.Fatalf("expected ErrPaymentMethodNotFound, got %v", err)
	}
}

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{name: "sixteen digits", number: "4111111111111234", want: "**** **** **** 1234"},
		{name: "fifteen digits", number: "341111111111234", want: "**** **** ***1 234"},
		{name: "short number", number: "1234", want: "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskCardNumber(tt.number); got != tt.want {
				t.Fatalf("maskCardNumber(%q) = %q, want %q", tt.number, got, tt.want)
			}
		})
	}
}
