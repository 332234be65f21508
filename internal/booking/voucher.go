package booking

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/skip2/go-qrcode"

	"lensbook/internal/models"
)

// VoucherGenerator renders a confirmed booking as an encrypted QR voucher
// the customer presents at the shoot.
type VoucherGenerator struct {
	secret []byte
}

func NewVoucherGenerator(secret string) *VoucherGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &VoucherGenerator{secret: hashed[:]}
}

type voucherPayload struct {
	BookingID      string `json:"booking_id"`
	CustomerID     string `json:"customer_id"`
	PhotographerID string `json:"photographer_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
}

// GenerateEncryptedQR encodes the booking's identifying fields into an
// AES-encrypted QR PNG.
func (v *VoucherGenerator) GenerateEncryptedQR(b models.Booking) ([]byte, error) {
	data, err := json.Marshal(voucherPayload{
		BookingID:      b.ID,
		CustomerID:     b.CustomerID,
		PhotographerID: b.PhotographerID,
		Date:           b.Date,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, v.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
