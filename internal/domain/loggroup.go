package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// LogGroup names the CloudWatch log group of a batch. CloudWatch delivers a
// single name; callers that already split the name supply an ordered list.
// The group re-encodes in the form it was built from.
type LogGroup struct {
	names []string
	list  bool
}

func NewLogGroup(name string) LogGroup {
	return LogGroup{names: []string{name}}
}

// NewLogGroupList builds a list-form group such as (primary, secondary).
func NewLogGroupList(names ...string) LogGroup {
	return LogGroup{names: append([]string(nil), names...), list: true}
}

func (g LogGroup) IsList() bool { return g.list }

func (g LogGroup) Primary() string {
	if len(g.names) == 0 {
		return ""
	}
	return g.names[0]
}

// Secondary returns the second list element. For a single name it returns
// the text after the first "/", e.g. the stage of
// "API-Gateway-Execution-Logs_abc123/prod".
func (g LogGroup) Secondary() string {
	if g.list {
		if len(g.names) < 2 {
			return ""
		}
		return g.names[1]
	}
	_, after, _ := strings.Cut(g.Primary(), "/")
	return after
}

// Joined returns the names separated by commas.
func (g LogGroup) Joined() string {
	return strings.Join(g.names, ",")
}

func (g LogGroup) String() string { return g.Joined() }

// StartsWith reports whether token leads the group: an exact match of the
// first element for list form, a name prefix for a single name.
func (g LogGroup) StartsWith(token string) bool {
	if g.list {
		return len(g.names) > 0 && g.names[0] == token
	}
	return len(g.names) > 0 && strings.HasPrefix(g.names[0], token)
}

// Value renders the group the way it arrived, for platform_log_group.
func (g LogGroup) Value() Value {
	if !g.list {
		return StringValue(g.Primary())
	}
	items := make([]Value, len(g.names))
	for i, n := range g.names {
		items[i] = StringValue(n)
	}
	return ListValue(items...)
}

func (g LogGroup) MarshalJSON() ([]byte, error) {
	return g.Value().MarshalJSON()
}

func (g *LogGroup) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*g = NewLogGroup(name)
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return errors.New("log group must be a string or a list of strings")
	}
	if names == nil {
		*g = LogGroup{}
		return nil
	}
	*g = NewLogGroupList(names...)
	return nil
}
