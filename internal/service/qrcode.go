package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(orderNo string, amount float64) ([]byte, error)
}

// DefaultQRGenerator encodes the shop's payment page URL for an order. The
// code is rendered on demand and never stored; scanning it leads to a manual
// payment, after which an admin updates the order status.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(orderNo string, amount float64) ([]byte, error) {
	qrData := fmt.Sprintf("%s/pay.html?order_no=%s&amount=%.2f", g.BaseURL, orderNo, amount)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
