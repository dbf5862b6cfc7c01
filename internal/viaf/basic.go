package viaf

import (
	"strconv"
)

// NameType classifies the entity a cluster describes.
type NameType string

const (
	NameTypePersonal   NameType = "Personal"
	NameTypeCorporate  NameType = "Corporate"
	NameTypeGeographic NameType = "Geographic"
	NameTypeUniform    NameType = "UniformTitleWork"
	NameTypeExpression NameType = "UniformTitleExpression"
)

// BasicInfo is the identity block of a cluster.
type BasicInfo struct {
	ID           string   `json:"id" yaml:"id"`
	NameType     NameType `json:"name_type,omitempty" yaml:"name_type,omitempty"`
	PrimaryTopic string   `json:"primary_topic,omitempty" yaml:"primary_topic,omitempty"`
	Length       *int     `json:"length,omitempty" yaml:"length,omitempty"`
	BirthDate    *string  `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	DeathDate    *string  `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	DateType     *string  `json:"date_type,omitempty" yaml:"date_type,omitempty"`
}

// ExtractBasic reads the cluster identifier and identity fields. Only the
// identifier is mandatory.
func ExtractBasic(r Record) (*BasicInfo, error) {
	n := r.node
	id, _ := n.ChildText("viafID")
	if id == "" {
		return nil, &MissingFieldError{Record: r.Index, Field: "viafID"}
	}

	info := &BasicInfo{ID: id}
	if v, ok := n.ChildText("nameType"); ok {
		info.NameType = NameType(v)
	}
	if topic := n.First("Document", "primaryTopic"); topic != nil {
		if v, ok := topic.Attr("resource"); ok {
			info.PrimaryTopic = v
		}
	}
	if v, ok := n.ChildText("length"); ok {
		if length, err := strconv.Atoi(v); err == nil {
			info.Length = &length
		}
	}
	info.BirthDate = optionalText(r, "birthDate")
	info.DeathDate = optionalText(r, "deathDate")
	info.DateType = optionalText(r, "dateType")
	return info, nil
}

// optionalText returns the child's text, or nil when the child is missing or empty.
func optionalText(r Record, tag string) *string {
	v, ok := r.node.ChildText(tag)
	if !ok || v == "" {
		return nil
	}
	return &v
}
