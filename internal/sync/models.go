package sync

// Request is the /sync request body. The Onspring field and app ids are
// schema coordinates of the target deployment's configurable data model;
// they are caller-supplied and never validated against a known schema.
type Request struct {
	ServiceNowBaseURL            string `json:"serviceNowBaseUrl"`
	AppName                      string `json:"appName"`
	OnspringUserAppID            int    `json:"onspringUserAppId"`
	OnspringUserFirstNameFieldID int    `json:"onspringUserFirstNameFieldId"`
	OnspringUserLastNameFieldID  int    `json:"onspringUserLastNameFieldId"`
	OnspringUserUsernameFieldID  int    `json:"onspringUserUsernameFieldId"`
	OnspringUserEmailFieldID     int    `json:"onspringUserEmailFieldId"`
	OnspringUserFullNameFieldID  int    `json:"onspringUserFullNameFieldId"`
	OnspringUserStatusFieldID    int    `json:"onspringUserStatusFieldId"`
	OnspringUserStatusValue      string `json:"onspringUserStatusValue"`
	OnspringUserTierFieldID      int    `json:"onspringUserTierFieldId"`
	OnspringUserTierValue        string `json:"onspringUserTierValue"`
	OnspringRegTypeAppID         int    `json:"onspringRegTypeAppId"`
	OnspringRegTypeIDFieldID     int    `json:"onspringRegTypeIdFieldId"`
}

// UserSchema is the subset of Request the identity resolver needs to locate
// and lay out person records.
type UserSchema struct {
	AppID            int
	FirstNameFieldID int
	LastNameFieldID  int
	UsernameFieldID  int
	EmailFieldID     int
	FullNameFieldID  int
	StatusFieldID    int
	StatusValue      string
	TierFieldID      int
	TierValue        string
}

func (r *Request) UserSchema() UserSchema {
	return UserSchema{
		AppID:            r.OnspringUserAppID,
		FirstNameFieldID: r.OnspringUserFirstNameFieldID,
		LastNameFieldID:  r.OnspringUserLastNameFieldID,
		UsernameFieldID:  r.OnspringUserUsernameFieldID,
		EmailFieldID:     r.OnspringUserEmailFieldID,
		FullNameFieldID:  r.OnspringUserFullNameFieldID,
		StatusFieldID:    r.OnspringUserStatusFieldID,
		StatusValue:      r.OnspringUserStatusValue,
		TierFieldID:      r.OnspringUserTierFieldID,
		TierValue:        r.OnspringUserTierValue,
	}
}

// Response links the two systems: ServiceNow application metadata plus the
// resolved Onspring record ids. Regulatory is the pipe-joined list of tag
// record ids, in input tag order; a tag with no matching record contributes
// the sentinel 0.
type Response struct {
	AppName     string `json:"appName"`
	ShortName   string `json:"shortName"`
	Description string `json:"description"`
	InstallType string `json:"installType"`
	CloudModel  string `json:"cloudModel"`
	Owner       int    `json:"owner"`
	L3          int    `json:"l3"`
	Regulatory  string `json:"regulatory"`
}

// RequestSchema validates the /sync body. All ids are positive integers, all
// strings non-empty, and the ServiceNow base URL must be absolute.
const RequestSchema = `{
	"type": "object",
	"required": [
		"serviceNowBaseUrl",
		"appName",
		"onspringUserAppId",
		"onspringUserFirstNameFieldId",
		"onspringUserLastNameFieldId",
		"onspringUserUsernameFieldId",
		"onspringUserEmailFieldId",
		"onspringUserFullNameFieldId",
		"onspringUserStatusFieldId",
		"onspringUserStatusValue",
		"onspringUserTierFieldId",
		"onspringUserTierValue",
		"onspringRegTypeAppId",
		"onspringRegTypeIdFieldId"
	],
	"properties": {
		"serviceNowBaseUrl": {"type": "string", "minLength": 1, "format": "uri", "pattern": "^https?://"},
		"appName": {"type": "string", "minLength": 1},
		"onspringUserAppId": {"type": "integer", "minimum": 1},
		"onspringUserFirstNameFieldId": {"type": "integer", "minimum": 1},
		"onspringUserLastNameFieldId": {"type": "integer", "minimum": 1},
		"onspringUserUsernameFieldId": {"type": "integer", "minimum": 1},
		"onspringUserEmailFieldId": {"type": "integer", "minimum": 1},
		"onspringUserFullNameFieldId": {"type": "integer", "minimum": 1},
		"onspringUserStatusFieldId": {"type": "integer", "minimum": 1},
		"onspringUserStatusValue": {"type": "string", "minLength": 1},
		"onspringUserTierFieldId": {"type": "integer", "minimum": 1},
		"onspringUserTierValue": {"type": "string", "minLength": 1},
		"onspringRegTypeAppId": {"type": "integer", "minimum": 1},
		"onspringRegTypeIdFieldId": {"type": "integer", "minimum": 1}
	}
}`
