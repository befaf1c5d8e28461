package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmeshcher/ebuy-system/internal/crypt"
	"github.com/mmeshcher/ebuy-system/internal/model"
)

// PaymentMethodInput описывает данные нового способа оплаты.
type PaymentMethodInput struct {
	CardType       string
	CardholderName string
	CardNumber     string
	ExpiryDate     string
	CVV            string
	BillingZip     string
	IsDefault      bool
}

// PaymentMethodUpdateInput описывает частичное обновление способа оплаты:
// nil-поля не изменяются.
type PaymentMethodUpdateInput struct {
	CardType       *string
	CardholderName *string
	CardNumber     *string
	ExpiryDate     *string
	CVV            *string
	BillingZip     *string
	IsDefault      *bool
}

// AddPaymentMethod шифрует номер карты и CVV и сохраняет способ оплаты.
// Последние четыре цифры извлекаются из нормализованного номера до шифрования.
func (s *Service) AddPaymentMethod(ctx context.Context, userID int64, in PaymentMethodInput) (int64, error) {
	number := strings.ReplaceAll(in.CardNumber, " ", "")

	encNumber, err := crypt.Encrypt(number, s.paymentKey)
	if err != nil {
		return 0, fmt.Errorf("encrypt card number: %w", err)
	}
	encCVV, err := crypt.Encrypt(in.CVV, s.paymentKey)
	if err != nil {
		return 0, fmt.Errorf("encrypt cvv: %w", err)
	}

	pm := &model.PaymentMethod{
		OwnerUserID:         userID,
		CardType:            in.CardType,
		CardholderName:      in.CardholderName,
		CardNumberEncrypted: encNumber,
		LastFourDigits:      lastFour(number),
		ExpiryDate:          in.ExpiryDate,
		CVVEncrypted:        encCVV,
		BillingZip:          in.BillingZip,
		IsDefault:           in.IsDefault,
	}

	return s.repo.CreatePaymentMethod(ctx, pm)
}

// GetPaymentMethod возвращает способ оплаты с маскированным номером карты.
// Если расшифровка не удалась, маска строится из сохранённых последних
// четырёх цифр вместо ошибки.
func (s *Service) GetPaymentMethod(ctx context.Context, userID, id int64) (*model.PaymentMethod, string, error) {
	pm, err := s.repo.GetPaymentMethod(ctx, id, userID)
	if err != nil {
		return nil, "", err
	}

	masked := "**** **** **** " + pm.LastFourDigits
	if number, err := crypt.Decrypt(pm.CardNumberEncrypted, s.paymentKey); err == nil && number != "" {
		masked = maskCardNumber(number)
	}

	return pm, masked, nil
}

// ListPaymentMethods возвращает способы оплаты пользователя: сначала способ
// по умолчанию, затем новые первыми. Номера карт не возвращаются.
func (s *Service) ListPaymentMethods(ctx context.Context, userID int64) ([]model.PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx, userID)
}

// UpdatePaymentMethod применяет частичное обновление способа оплаты.
// Номер карты перешифровывается только если прислан без символов маски;
// присланный CVV перешифровывается всегда.
func (s *Service) UpdatePaymentMethod(ctx context.Context, userID, id int64, in PaymentMethodUpdateInput) error {
	// Проверка владения выполняется до разбора полей: чужой или
	// несуществующий идентификатор даёт not found, а не ошибку валидации.
	if _, err := s.repo.GetPaymentMethod(ctx, id, userID); err != nil {
		return err
	}

	upd := model.PaymentMethodUpdate{
		CardType:       in.CardType,
		CardholderName: in.CardholderName,
		ExpiryDate:     in.ExpiryDate,
		BillingZip:     in.BillingZip,
		IsDefault:      in.IsDefault,
	}

	if in.CardNumber != nil && *in.CardNumber != "" && !strings.Contains(*in.CardNumber, "*") {
		number := strings.ReplaceAll(*in.CardNumber, " ", "")
		encNumber, err := crypt.Encrypt(number, s.paymentKey)
		if err != nil {
			return fmt.Errorf("encrypt card number: %w", err)
		}
		four := lastFour(number)
		upd.CardNumberEncrypted = &encNumber
		upd.LastFourDigits = &four
	}

	if in.CVV != nil && *in.CVV != "" {
		encCVV, err := crypt.Encrypt(*in.CVV, s.paymentKey)
		if err != nil {
			return fmt.Errorf("encrypt cvv: %w", err)
		}
		upd.CVVEncrypted = &encCVV
	}

	if upd.IsEmpty() {
		return ErrNoFieldsToUpdate
	}

	return s.repo.UpdatePaymentMethod(ctx, id, userID, upd)
}

// DeletePaymentMethod удаляет способ оплаты в пределах владельца.
func (s *Service) DeletePaymentMethod(ctx context.Context, userID, id int64) error {
	return s.repo.DeletePaymentMethod(ctx, id, userID)
}

// GetDefaultPaymentMethod возвращает способ оплаты пользователя по умолчанию.
func (s *Service) GetDefaultPaymentMethod(ctx context.Context, userID int64) (*model.PaymentMethod, error) {
	return s.repo.GetDefaultPaymentMethod(ctx, userID)
}

func lastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

// maskCardNumber заменяет все цифры, кроме последних четырёх, символом '*'
// и группирует результат по четыре символа через пробел.
func maskCardNumber(number string) string {
	masked := strings.Repeat("*", len(number)-len(lastFour(number))) + lastFour(number)

	groups := make([]string, 0, (len(masked)+3)/4)
	for i := 0; i < len(masked); i += 4 {
		end := i + 4
		if end > len(masked) {
			end = len(masked)
		}
		groups = append(groups, masked[i:end])
	}

	return strings.Join(groups, " ")
}
