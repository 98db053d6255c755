package kobo

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"tablecast/internal/common"
	"tablecast/internal/mapping"
)

// Asset is a form definition as served by the management API.
type Asset struct {
	UID       string   `json:"uid"`
	VersionID string   `json:"version_id"`
	Content   *Content `json:"content"`
}

// Content is the survey definition inside an asset.
type Content struct {
	Survey  []SurveyItem `json:"survey"`
	Choices []ChoiceItem `json:"choices"`
}

// SurveyItem is one row of the survey sheet. XPath carries the full
// hierarchical path of the question.
type SurveyItem struct {
	Type               string `json:"type"`
	Name               string `json:"name"`
	XPath              string `json:"$xpath"`
	SelectFromListName string `json:"select_from_list_name"`
}

// ChoiceItem is one row of the choices sheet.
type ChoiceItem struct {
	ListName string `json:"list_name"`
	Name     string `json:"name"`
	Label    Label  `json:"label"`
}

// Label accepts both a bare string and a translation array, keeping the
// first translation.
type Label string

// UnmarshalJSON implements the two label encodings. Anything else
// yields the empty label, which generation skips.
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Label(s)
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		first, _ := common.First(arr)
		*l = Label(first)
		return nil
	}

	*l = ""

	return nil
}

// ParseAsset decodes a management API asset response.
func ParseAsset(data []byte) (*Asset, error) {
	var asset Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse asset response: %w", err)
	}

	if asset.Content == nil {
		return nil, errors.New("no content in asset response")
	}

	return &asset, nil
}

// ParseContent decodes a form definition, accepting both a bare content
// document and a full asset response wrapping one.
func ParseContent(data []byte) (*Content, error) {
	if asset, err := ParseAsset(data); err == nil {
		return asset.Content, nil
	}

	var content Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse form definition: %w", err)
	}

	if content.Survey == nil {
		return nil, errors.New("form definition has no survey")
	}

	return &content, nil
}

// FieldPaths returns the name→path pairs of survey items carrying both
// a name and an xpath, in survey order. A repeated name keeps its first
// position and takes the last path.
func (c *Content) FieldPaths() []mapping.Field {
	fields := make([]mapping.Field, 0, len(c.Survey))
	at := make(map[string]int, len(c.Survey))

	for _, item := range c.Survey {
		if item.Name == "" || item.XPath == "" {
			continue
		}

		if i, dup := at[item.Name]; dup {
			fields[i].Path = item.XPath
			continue
		}

		at[item.Name] = len(fields)
		fields = append(fields, mapping.Field{Name: item.Name, Path: item.XPath})
	}

	return fields
}

// ChoiceLists returns the per-field choice lists of the select
// questions whose referenced list exists.
func (c *Content) ChoiceLists() map[string]*mapping.ChoiceList {
	_, lists := c.orderedChoiceLists()
	return lists
}

// orderedChoiceLists builds the lists plus the survey-order field names,
// for rendering.
func (c *Content) orderedChoiceLists() ([]string, map[string]*mapping.ChoiceList) {
	byList := make(map[string]*mapping.ChoiceList)
	for _, ch := range c.Choices {
		if ch.ListName == "" || ch.Name == "" || ch.Label == "" {
			continue
		}

		cl, ok := byList[ch.ListName]
		if !ok {
			cl = mapping.NewChoiceList()
			byList[ch.ListName] = cl
		}

		cl.Add(string(ch.Label), ch.Name)
	}

	var names []string
	lists := make(map[string]*mapping.ChoiceList)

	for _, item := range c.Survey {
		if !isSelectType(item.Type) || item.Name == "" {
			continue
		}

		cl, ok := byList[item.SelectFromListName]
		if !ok || item.SelectFromListName == "" {
			continue
		}

		if _, dup := lists[item.Name]; !dup {
			names = append(names, item.Name)
		}

		lists[item.Name] = cl
	}

	return names, lists
}

func isSelectType(t string) bool {
	return strings.HasPrefix(t, "select_one") || strings.HasPrefix(t, "select_multiple")
}

// MappingSpec builds the conversion mapping straight from the content.
func (c *Content) MappingSpec() (*mapping.Spec, error) {
	return mapping.NewSpec(c.FieldPaths(), c.ChoiceLists())
}

// MappingJSON renders the content as a mapping document, fields and
// choices in survey order, ready to save and hand-edit.
func (c *Content) MappingJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"fields":{`)

	for i, f := range c.FieldPaths() {
		if err := writePair(&buf, f.Name, f.Path, i == 0); err != nil {
			return nil, err
		}
	}

	buf.WriteString(`},"choices":{`)

	names, lists := c.orderedChoiceLists()
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteString(":{")

		for j, e := range lists[name].Entries() {
			if err := writePair(&buf, e.Label, e.Code, j == 0); err != nil {
				return nil, err
			}
		}

		buf.WriteByte('}')
	}

	buf.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func writePair(buf *bytes.Buffer, key, value string, first bool) error {
	if !first {
		buf.WriteByte(',')
	}

	k, err := json.Marshal(key)
	if err != nil {
		return err
	}

	v, err := json.Marshal(value)
	if err != nil {
		return err
	}

	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)

	return nil
}
