package ledger

import "errors"

var (
	ErrInvalidAmount       = errors.New("tutar pozitif olmalı")
	ErrInsufficientFunds   = errors.New("yetersiz bakiye")
	ErrIneligibleRecipient = errors.New("alıcı bu işlem için uygun değil")
	ErrForbidden           = errors.New("bu işlem için yetki yok")
	ErrNotFound            = errors.New("kayıt bulunamadı")
	ErrOutOfStock          = errors.New("ürün stokta yok")
	ErrCodeExhausted       = errors.New("benzersiz fiş kodu üretilemedi")
)
