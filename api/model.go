package api

import (
	"encoding/json"
	"regexp"
)

// Field projections requested from the tracker.
const (
	IssueFields          = "id,idReadable,summary,description,created,updated,project(id,name,shortName),reporter(id,login,name),assignee(id,login,name),customFields(id,name,value)"
	IssueIdentityFields  = "id,idReadable"
	ProjectFields        = "id,name,shortName,description,archived,leader(id,login,name)"
	ProjectLookupFields  = "id,name,shortName,archived"
	ProjectSchemaFields  = "field(id,name,fieldType($type,valueType,id)),canBeEmpty,autoAttached"
	ProjectBundleFields  = "id,field(name),bundle(id,$type)"
	UserFields           = "id,login,name,email,banned"
	UserFullFields       = "id,login,name,fullName,email,banned,online,guest,avatarUrl"
	UserGroupFields      = "id,login,name,groups(id,name)"
	CommentFields        = "id,text,created,updated,author(id,login,name)"
	AttachmentFields     = "id,name,mimeType,size,url,created"
	LinkFields           = "id,direction,linkType(id,name,sourceToTarget,targetToSource,directed),issues(id,idReadable,summary)"
	IssueCustomFieldsAll = "id,name,value(id,name,login,text,presentation,minutes),$type"
)

var internalIDPattern = regexp.MustCompile(`^\d+-\d+$`)

// IsInternalID reports whether id has the tracker's internal "N-N" shape.
func IsInternalID(id string) bool {
	return internalIDPattern.MatchString(id)
}

// Issue is a tracker issue; attributes the tracker sends beyond the known
// fields are kept in Extra and written back on encoding.
type Issue struct {
	Type         string         `json:"$type,omitempty"`
	ID           string         `json:"id,omitempty"`
	IDReadable   string         `json:"idReadable,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Description  string         `json:"description,omitempty"`
	Created      *int64         `json:"created,omitempty"`
	Updated      *int64         `json:"updated,omitempty"`
	Project      *Project       `json:"project,omitempty"`
	Reporter     *User          `json:"reporter,omitempty"`
	Assignee     *User          `json:"assignee,omitempty"`
	CustomFields []*CustomField `json:"customFields,omitempty"`
	Attachments  []*Attachment  `json:"attachments,omitempty"`
	Comments     []*Comment     `json:"comments,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var issueKnownFields = []string{"$type", "id", "idReadable", "summary", "description", "created", "updated",
	"project", "reporter", "assignee", "customFields", "attachments", "comments"}

func (i *Issue) UnmarshalJSON(data []byte) error {
	type plain Issue
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, name := range issueKnownFields {
		delete(all, name)
	}
	if len(all) > 0 {
		decoded.Extra = all
	}
	*i = Issue(decoded)
	return nil
}

func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	data, err := json.Marshal(plain(i))
	if err != nil || len(i.Extra) == 0 {
		return data, err
	}
	merged := map[string]json.RawMessage{}
	if err = json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for name, value := range i.Extra {
		if _, ok := merged[name]; !ok {
			merged[name] = value
		}
	}
	return json.Marshal(merged)
}

// Key returns the readable id when known, otherwise the internal id.
func (i *Issue) Key() string {
	if i.IDReadable != "" {
		return i.IDReadable
	}
	return i.ID
}

// Field returns the custom field with the given name.
func (i *Issue) Field(name string) *CustomField {
	for _, field := range i.CustomFields {
		if field != nil && field.Name == name {
			return field
		}
	}
	return nil
}

// ensureTitle gives stub issues a displayable summary.
func (i *Issue) ensureTitle(id string) {
	if i.Summary != "" {
		return
	}
	if id == "" {
		id = i.Key()
	}
	i.Summary = "Issue " + id
}

type Project struct {
	Type        string `json:"$type,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ShortName   string `json:"shortName,omitempty"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	Leader      *User  `json:"leader,omitempty"`
}

type User struct {
	Type      string   `json:"$type,omitempty"`
	ID        string   `json:"id,omitempty"`
	Login     string   `json:"login,omitempty"`
	Name      string   `json:"name,omitempty"`
	FullName  string   `json:"fullName,omitempty"`
	Email     string   `json:"email,omitempty"`
	Banned    bool     `json:"banned,omitempty"`
	Online    bool     `json:"online,omitempty"`
	Guest     bool     `json:"guest,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Groups    []*Group `json:"groups,omitempty"`
}

type Group struct {
	Type string `json:"$type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CustomField is a per-issue field entry; Value keeps the tracker's shape.
type CustomField struct {
	Type           string      `json:"$type,omitempty"`
	ID             string      `json:"id,omitempty"`
	Name           string      `json:"name,omitempty"`
	Value          interface{} `json:"value"`
	PossibleEvents []*Event    `json:"possibleEvents,omitempty"`
}

// Event is a state machine transition.
type Event struct {
	Type         string `json:"$type,omitempty"`
	ID           string `json:"id,omitempty"`
	Presentation string `json:"presentation,omitempty"`
}

type Comment struct {
	Type    string `json:"$type,omitempty"`
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	Created *int64 `json:"created,omitempty"`
	Updated *int64 `json:"updated,omitempty"`
	Author  *User  `json:"author,omitempty"`
}

type Attachment struct {
	Type     string `json:"$type,omitempty"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
	Created  *int64 `json:"created,omitempty"`
}

// ProjectCustomField binds a custom field to a project.
type ProjectCustomField struct {
	Type         string     `json:"$type,omitempty"`
	ID           string     `json:"id,omitempty"`
	Field        *FieldInfo `json:"field,omitempty"`
	CanBeEmpty   bool       `json:"canBeEmpty"`
	AutoAttached bool       `json:"autoAttached"`
	Bundle       *BundleRef `json:"bundle,omitempty"`
}

type FieldInfo struct {
	Type      string     `json:"$type,omitempty"`
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	FieldType *FieldType `json:"fieldType,omitempty"`
}

type FieldType struct {
	Type      string `json:"$type,omitempty"`
	ID        string `json:"id,omitempty"`
	ValueType string `json:"valueType,omitempty"`
}

type BundleRef struct {
	Type string `json:"$type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// issueRef addresses an issue in request bodies by whichever id form is known.
func issueRef(id string) map[string]string {
	if IsInternalID(id) {
		return map[string]string{"id": id}
	}
	return map[string]string{"idReadable": id}
}
