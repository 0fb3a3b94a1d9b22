package authclient

// Severity of an Alert.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps unknown values to SeverityInfo.
func ParseSeverity(s string) Severity {
	switch sev := Severity(s); sev {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return sev
	default:
		return SeverityInfo
	}
}

// Alert is a transient notification shown in the alert container.
type Alert struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Class returns the CSS class for the alert box.
func (a Alert) Class() string {
	return "alert-" + string(ParseSeverity(string(a.Severity)))
}

// Icon returns the Font Awesome icon class.
func (a Alert) Icon() string {
	switch ParseSeverity(string(a.Severity)) {
	case SeveritySuccess:
		return "fa-check-circle"
	case SeverityError:
		return "fa-exclamation-circle"
	case SeverityWarning:
		return "fa-exclamation-triangle"
	default:
		return "fa-info-circle"
	}
}

// Messages shown by the controller.
const (
	MsgLoginSuccess       = "Login successful! Redirecting..."
	MsgInvalidCredentials = "Invalid email or password"
	MsgConnectFailed      = "Failed to connect to server. Please try again."
	MsgGoogleRedirecting  = "Redirecting to Google..."
	MsgGoogleInitFailed   = "Failed to initialize Google sign-in"
	MsgGoogleConnectFail  = "Failed to connect to Google. Please try again."
	MsgGoogleSuccess      = "Google sign-in successful!"
	MsgCompleteSignup     = "Please complete your registration"
	MsgProfileFailed      = "Failed to load your profile"
)
