package metadomain

import "strings"

// ErrorResponse representa a estrutura de erro da API do Meta
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contém os detalhes de erro da API do Meta
type ErrorDetails struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id"`
}

var tokenSubcodes = map[int]bool{458: true, 459: true, 460: true, 463: true, 464: true, 467: true}

var tokenMessages = []string{
	"Error validating access token",
	"Session has expired",
	"The session has been invalidated",
}

// IsTokenExpired: código 190, OAuthException com subcódigo de sessão ou mensagem conhecida
func (e *ErrorResponse) IsTokenExpired() bool {
	if e.Error.Code == 190 {
		return true
	}
	if e.Error.Type == "OAuthException" && tokenSubcodes[e.Error.ErrorSubcode] {
		return true
	}
	return ContainsTokenExpirationMessage(e.Error.Message)
}

func (e *ErrorResponse) IsRateLimited() bool {
	switch e.Error.Code {
	case 4, 17, 32, 613:
		return true
	}
	return e.Error.Code >= 80000 && e.Error.Code <= 80014
}

// IsTransient: códigos 1 (unknown) e 2 (service) são instabilidades do Meta
func (e *ErrorResponse) IsTransient() bool {
	return e.Error.Code == 1 || e.Error.Code == 2
}

func ContainsTokenExpirationMessage(message string) bool {
	for _, m := range tokenMessages {
		if strings.Contains(message, m) {
			return true
		}
	}
	return false
}
