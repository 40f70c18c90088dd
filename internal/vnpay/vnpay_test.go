package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConf(t *testing.T) *Conf {
	t.Helper()
	c, err := NewConf("TESTTMN1", "TESTSECRETTESTSECRET", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "https://shop.example.com/payment/return")
	require.NoError(t, err)
	c.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return c
}

func TestNewConfRequiresCredentials(t *testing.T) {
	_, err := NewConf("", "secret", "pay", "ret")
	assert.Error(t, err)
	_, err = NewConf("tmn", "", "pay", "ret")
	assert.Error(t, err)
}

func TestSignDataSortsAndSkipsEncoding(t *testing.T) {
	got := signData(map[string]string{
		"vnp_TxnRef":    "MPH-20240315-ABC",
		"vnp_Amount":    "50000000",
		"vnp_OrderInfo": "Thanh toan don hang MPH",
	})
	assert.Equal(t, "vnp_Amount=50000000&vnp_OrderInfo=Thanh toan don hang MPH&vnp_TxnRef=MPH-20240315-ABC", got)
}

func TestCreatePaymentURL(t *testing.T) {
	c := testConf(t)

	rawURL, err := c.CreatePaymentURL(PaymentRequest{
		TxnRef:    "MPH-20240315-ABCD1234",
		Amount:    500000,
		OrderInfo: "Thanh toan don hang MPH-20240315-ABCD1234",
		IPAddr:    "203.0.113.7",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawURL, c.PayURL+"?"))

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "TESTTMN1", q.Get("vnp_TmnCode"))
	assert.Equal(t, "50000000", q.Get("vnp_Amount")) // VND x100
	assert.Equal(t, "MPH-20240315-ABCD1234", q.Get("vnp_TxnRef"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	// Timestamps follow GMT+7 regardless of server zone: 10:30 UTC is 17:30.
	assert.Equal(t, "20240315173000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20240315174500", q.Get("vnp_ExpireDate"))
}

func TestCreatePaymentURLValidation(t *testing.T) {
	c := testConf(t)

	_, err := c.CreatePaymentURL(PaymentRequest{Amount: 100})
	assert.Error(t, err)
	_, err = c.CreatePaymentURL(PaymentRequest{TxnRef: "x", Amount: 0})
	assert.Error(t, err)
}

func TestVerifyReturnRoundTrip(t *testing.T) {
	c := testConf(t)

	params := map[string]string{
		"vnp_TmnCode":       "TESTTMN1",
		"vnp_Amount":        "50000000",
		"vnp_TxnRef":        "MPH-20240315-ABCD1234",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14012345",
	}
	params["vnp_SecureHash"] = c.Sign(params)
	params["vnp_SecureHashType"] = "HMACSHA512"

	assert.True(t, c.VerifyReturn(params))
}

func TestVerifyReturnRejectsTampering(t *testing.T) {
	c := testConf(t)

	params := map[string]string{
		"vnp_TmnCode":      "TESTTMN1",
		"vnp_Amount":       "50000000",
		"vnp_TxnRef":       "MPH-20240315-ABCD1234",
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = c.Sign(params)

	// Flipping the amount after signing must fail verification.
	params["vnp_Amount"] = "1"
	assert.False(t, c.VerifyReturn(params))
}

func TestVerifyReturnRejectsMissingHash(t *testing.T) {
	c := testConf(t)
	assert.False(t, c.VerifyReturn(map[string]string{"vnp_TxnRef": "x"}))
	assert.False(t, c.VerifyReturn(map[string]string{"vnp_TxnRef": "x", "vnp_SecureHash": ""}))
}

func TestVerifyReturnAcceptsUppercaseHash(t *testing.T) {
	c := testConf(t)

	params := map[string]string{"vnp_TxnRef": "MPH-1", "vnp_ResponseCode": "00"}
	params["vnp_SecureHash"] = strings.ToUpper(c.Sign(params))
	assert.True(t, c.VerifyReturn(params))
}

func TestResponseCodes(t *testing.T) {
	code := ParseResponseCode("00")
	assert.True(t, code.Success())

	for _, raw := range []string{"07", "09", "10", "11", "12", "24", "51", "65", "75"} {
		code := ParseResponseCode(raw)
		assert.False(t, code.Success())
		assert.NotEmpty(t, code.Message())
	}

	unknown := ParseResponseCode("42")
	assert.Equal(t, CodeUnknown, unknown)
	assert.False(t, unknown.Success())
	assert.NotEmpty(t, unknown.Message())
}
