package twitter

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dghubble/go-twitter/twitter"

	"twitterkeywordsearch/pkg/errors"
)

// Remote API error codes with a dedicated meaning.
const (
	codeNoSuchUser      = 50
	codeSuspended       = 63
	codeNotFound        = 34
	codeRateLimited     = 88
	codeNotAuthorized   = 179
	codeOverCapacity    = 130
	codeInternalError   = 131
	codeTooManyRequests = 429
)

// classify maps a go-twitter result onto the error taxonomy. The library
// returns a nil error for non-2xx responses without an error body, so the
// status code is checked too.
func classify(resp *http.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	var apiErr twitter.APIError
	if stderrors.As(err, &apiErr) && !apiErr.Empty() {
		detail := apiErr.Errors[0]
		return errors.Wrap(typeForCode(detail.Code, status), err, detail.Message).WithCode(detail.Code)
	}

	if err != nil {
		if status == 0 || status >= http.StatusInternalServerError {
			return errors.Wrap(errors.ErrorTypeTransport, err, "request failed")
		}
		return errors.Wrap(errors.TypeForStatus(status), err, "request failed").WithCode(status)
	}

	if status >= http.StatusBadRequest {
		msg := http.StatusText(status)
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return errors.New(errors.TypeForStatus(status), msg).WithCode(status)
	}
	return nil
}

func typeForCode(code, status int) errors.ErrorType {
	switch code {
	case codeRateLimited, codeTooManyRequests:
		return errors.ErrorTypeRateLimit
	case codeNoSuchUser, codeSuspended, codeNotFound, codeNotAuthorized:
		return errors.ErrorTypeAuth
	case codeOverCapacity, codeInternalError:
		return errors.ErrorTypeTransport
	}
	return errors.TypeForStatus(status)
}
