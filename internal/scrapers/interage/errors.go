package interage

import "fmt"

type ErrorKind int

const (
	TokenNotFound ErrorKind = iota + 1
	InvalidCredentials
	SessionExpired
	HeaderNotFound
	ContentBlockNotFound
	NoPanelsFound
)

func (k ErrorKind) String() string {
	switch k {
	case TokenNotFound:
		return "TokenNotFound"
	case InvalidCredentials:
		return "InvalidCredentials"
	case SessionExpired:
		return "SessionExpired"
	case HeaderNotFound:
		return "HeaderNotFound"
	case ContentBlockNotFound:
		return "ContentBlockNotFound"
	case NoPanelsFound:
		return "NoPanelsFound"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) message() string {
	switch k {
	case TokenNotFound:
		return "Verification token not found."
	case InvalidCredentials:
		return "Invalid username or password."
	case SessionExpired:
		return "Session expired or not authenticated."
	case HeaderNotFound:
		return "Grades header block not found."
	case ContentBlockNotFound:
		return "Intermediate grades block not found."
	case NoPanelsFound:
		return "No grade panels found."
	}
	return k.String()
}

// ExtractionError is a structural failure while talking to or parsing the
// portal, the page did not look like what the scraper expects.
type ExtractionError struct {
	Kind ErrorKind
}

func (e *ExtractionError) Error() string {
	return e.Kind.message()
}

// Is matches any ExtractionError of the same kind.
func (e *ExtractionError) Is(target error) bool {
	t, ok := target.(*ExtractionError)
	return ok && t.Kind == e.Kind
}

var (
	ErrTokenNotFound        = &ExtractionError{Kind: TokenNotFound}
	ErrInvalidCredentials   = &ExtractionError{Kind: InvalidCredentials}
	ErrSessionExpired       = &ExtractionError{Kind: SessionExpired}
	ErrHeaderNotFound       = &ExtractionError{Kind: HeaderNotFound}
	ErrContentBlockNotFound = &ExtractionError{Kind: ContentBlockNotFound}
	ErrNoPanelsFound        = &ExtractionError{Kind: NoPanelsFound}
)
