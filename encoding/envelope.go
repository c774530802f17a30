package encoding

//Envelope is the uniform response body. Business failures ride a normal 200
//transport with a non-200 code inside; only raw image bytes and rejected
//credentials use true HTTP statuses.
type Envelope struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

const (
	CodeOk         = "200"
	CodeBadRequest = "400"
	CodeNotFound   = "404"
	CodeInternal   = "500"
)

func OK(data interface{}) *Envelope {
	return &Envelope{Code: CodeOk, Msg: "success", Data: data}
}

func OKMsg(msg string, data interface{}) *Envelope {
	return &Envelope{Code: CodeOk, Msg: msg, Data: data}
}

func Fail(code, msg string) *Envelope {
	return &Envelope{Code: code, Msg: msg}
}

//Page wraps one page of list results.
type Page struct {
	List     interface{} `json:"list"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}
