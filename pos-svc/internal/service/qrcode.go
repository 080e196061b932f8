package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(receiptID int) ([]byte, error)
}

// DefaultQRGenerator encodes a link to the public receipt page as a PNG.
type DefaultQRGenerator struct {
	BaseURL string
	Size    int
}

func (g DefaultQRGenerator) Generate(receiptID int) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(g.ReceiptURL(receiptID), qrcode.Medium, size)
}

func (g DefaultQRGenerator) ReceiptURL(receiptID int) string {
	return fmt.Sprintf("%s/receipt.html?receipt_id=%d", g.BaseURL, receiptID)
}

func ReceiptQRLink(receiptID int) string {
	return fmt.Sprintf("/api/receipts/%d/qrcode", receiptID)
}
