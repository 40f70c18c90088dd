package vnpay

// ResponseCode is the gateway's vnp_ResponseCode, modeled as a closed set
// with an explicit unknown fallback instead of a free-form string.
type ResponseCode string

const (
	CodeSuccess          ResponseCode = "00"
	CodeSuspectedFraud   ResponseCode = "07"
	CodeNotRegistered    ResponseCode = "09"
	CodeWrongOTP         ResponseCode = "10"
	CodeExpired          ResponseCode = "11"
	CodeCardLocked       ResponseCode = "12"
	CodeUserCancelled    ResponseCode = "24"
	CodeInsufficientFund ResponseCode = "51"
	CodeLimitExceeded    ResponseCode = "65"
	CodeBankMaintenance  ResponseCode = "75"
	CodeUnknown          ResponseCode = ""
)

var knownCodes = map[ResponseCode]string{
	CodeSuccess:          "Giao dịch thành công",
	CodeSuspectedFraud:   "Giao dịch bị nghi ngờ gian lận",
	CodeNotRegistered:    "Thẻ/Tài khoản chưa đăng ký dịch vụ InternetBanking",
	CodeWrongOTP:         "Xác thực thông tin sai quá số lần quy định",
	CodeExpired:          "Đã hết hạn chờ thanh toán",
	CodeCardLocked:       "Thẻ/Tài khoản bị khóa",
	CodeUserCancelled:    "Khách hàng hủy giao dịch",
	CodeInsufficientFund: "Tài khoản không đủ số dư",
	CodeLimitExceeded:    "Vượt quá hạn mức giao dịch trong ngày",
	CodeBankMaintenance:  "Ngân hàng đang bảo trì",
}

// ParseResponseCode maps a raw code onto the known set, falling back to
// CodeUnknown so callers never branch on an unchecked string.
func ParseResponseCode(raw string) ResponseCode {
	code := ResponseCode(raw)
	if _, ok := knownCodes[code]; ok {
		return code
	}
	return CodeUnknown
}

func (c ResponseCode) Success() bool { return c == CodeSuccess }

// Message returns the user-facing description for the code.
func (c ResponseCode) Message() string {
	if msg, ok := knownCodes[c]; ok {
		return msg
	}
	return "Giao dịch không thành công, vui lòng thử lại"
}

// IPN response codes the merchant returns to the gateway.
const (
	IPNOK             = "00"
	IPNOrderNotFound  = "01"
	IPNAlreadyUpdated = "02"
	IPNInvalidAmount  = "04"
	IPNInvalidSig     = "97"
	IPNUnknownError   = "99"
)
