package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	version     = "2.1.0"
	commandPay  = "pay"
	currCode    = "VND"
	localeVN    = "vn"
	payDeadline = 15 * time.Minute
)

// VNPay timestamps are local to Indochina time regardless of server zone.
var gmt7 = time.FixedZone("GMT+7", 7*60*60)

type Conf struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	now        func() time.Time
}

func NewConf(tmnCode, hashSecret, payURL, returnURL string) (*Conf, error) {
	if tmnCode == "" || hashSecret == "" {
		return nil, fmt.Errorf("vnpay merchant code and hash secret are required")
	}
	return &Conf{
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		PayURL:     payURL,
		ReturnURL:  returnURL,
		now:        time.Now,
	}, nil
}

// PaymentRequest describes one outbound payment. Amount is VND.
type PaymentRequest struct {
	TxnRef    string // order number, echoed back in the callback
	Amount    int64
	OrderInfo string
	IPAddr    string
	Locale    string // optional, defaults to vn
	BankCode  string // optional, lets the user skip the bank-select page
}

// signData builds the canonical string the signature covers: parameters
// sorted by key, joined as k=v&k=v, values NOT url-encoded. Generation and
// verification must both go through here or every payment silently fails.
func signData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Sign computes the HMAC-SHA512 secure hash over the canonical parameter
// string.
func (c *Conf) Sign(params map[string]string) string {
	mac := hmac.New(sha512.New, []byte(c.HashSecret))
	mac.Write([]byte(signData(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreatePaymentURL builds the hosted-payment redirect URL, signed with
// vnp_SecureHash as the last parameter.
func (c *Conf) CreatePaymentURL(req PaymentRequest) (string, error) {
	if req.TxnRef == "" || req.Amount <= 0 {
		return "", fmt.Errorf("txn ref and positive amount are required")
	}

	now := c.now().In(gmt7)
	locale := req.Locale
	if locale == "" {
		locale = localeVN
	}

	params := map[string]string{
		"vnp_Version":    version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.TmnCode,
		"vnp_Locale":     locale,
		"vnp_CurrCode":   currCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10), // gateway convention: VND x100
		"vnp_ReturnUrl":  c.ReturnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(payDeadline).Format("20060102150405"),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	secureHash := c.Sign(params)

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("vnp_SecureHash", secureHash)

	return c.PayURL + "?" + query.Encode(), nil
}

// VerifyReturn authenticates an inbound callback: the secure hash fields are
// stripped, the signature recomputed over what remains, and compared in
// constant time. A false return means the callback is untrusted and must be
// rejected.
func (c *Conf) VerifyReturn(params map[string]string) bool {
	received, ok := params["vnp_SecureHash"]
	if !ok || received == "" {
		return false
	}

	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		filtered[k] = v
	}

	expected := c.Sign(filtered)
	return hmac.Equal([]byte(strings.ToLower(received)), []byte(expected))
}
