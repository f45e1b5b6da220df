package googledomain

// ErrorResponse é o envelope de erro do Google Ads API (google.rpc.Status)
type ErrorResponse struct {
	Error ErrorStatus `json:"error"`
}

type ErrorStatus struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  string        `json:"status"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Type   string         `json:"@type"`
	Errors []AdsErrorItem `json:"errors,omitempty"`
}

type AdsErrorItem struct {
	ErrorCode map[string]string `json:"errorCode"`
	Message   string            `json:"message"`
}

func (e *ErrorResponse) IsAuthError() bool {
	if e.Error.Status == "UNAUTHENTICATED" || e.Error.Code == 401 {
		return true
	}
	return e.hasCode("authenticationError", "OAUTH_TOKEN_EXPIRED", "OAUTH_TOKEN_REVOKED", "OAUTH_TOKEN_INVALID")
}

func (e *ErrorResponse) IsRateLimited() bool {
	if e.Error.Status == "RESOURCE_EXHAUSTED" || e.Error.Code == 429 {
		return true
	}
	return e.hasCode("quotaError", "RESOURCE_EXHAUSTED", "RESOURCE_TEMPORARILY_EXHAUSTED")
}

func (e *ErrorResponse) IsTransient() bool {
	switch e.Error.Status {
	case "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED":
		return true
	}
	return e.hasCode("internalError", "INTERNAL_ERROR", "TRANSIENT_ERROR")
}

func (e *ErrorResponse) hasCode(kind string, values ...string) bool {
	for _, d := range e.Error.Details {
		for _, item := range d.Errors {
			code, ok := item.ErrorCode[kind]
			if !ok {
				continue
			}
			for _, v := range values {
				if code == v {
					return true
				}
			}
		}
	}
	return false
}
