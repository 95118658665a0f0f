// Package domain defines the donor record, the registration input and the
// persistence contract shared by every layer of the donor registry.
package domain

import (
	"strings"
	"time"
)

// Donor is one registrant's stored data. ID is the sole identity key; records
// are never updated in place.
type Donor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Blood    string `json:"blood"`
	Organ    string `json:"organ"`
	Location string `json:"location"`
	Contact  string `json:"contact"`
	// Created is the creation time in epoch milliseconds.
	Created int64 `json:"created"`
}

// CreatedAt converts the provenance timestamp to a time.Time.
func (d Donor) CreatedAt() time.Time {
	return time.UnixMilli(d.Created).UTC()
}

// HasOrgan reports whether the donor lists an organ.
func (d Donor) HasOrgan() bool { return strings.TrimSpace(d.Organ) != "" }

// HasBlood reports whether the donor lists a blood type.
func (d Donor) HasBlood() bool { return strings.TrimSpace(d.Blood) != "" }

// Validate checks the stored-record invariants: a non-empty id and the four
// required fields non-empty after trimming.
func (d Donor) Validate() error {
	var missing []string
	if strings.TrimSpace(d.ID) == "" {
		missing = append(missing, FieldID)
	}
	missing = append(missing, missingRequired(d.Name, d.Blood, d.Location, d.Contact)...)
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Registration is the raw form input for a new donor.
type Registration struct {
	Name     string `json:"name"`
	Blood    string `json:"blood"`
	Organ    string `json:"organ"`
	Location string `json:"location"`
	Contact  string `json:"contact"`
}

// Normalize returns a copy with every field trimmed.
func (r Registration) Normalize() Registration {
	return Registration{
		Name:     strings.TrimSpace(r.Name),
		Blood:    strings.TrimSpace(r.Blood),
		Organ:    strings.TrimSpace(r.Organ),
		Location: strings.TrimSpace(r.Location),
		Contact:  strings.TrimSpace(r.Contact),
	}
}

// Validate reports the required fields that are empty after trimming. Organ is
// optional and never checked.
func (r Registration) Validate() error {
	if missing := missingRequired(r.Name, r.Blood, r.Location, r.Contact); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Donor builds the stored record for a normalized registration.
func (r Registration) Donor(id string, created time.Time) Donor {
	n := r.Normalize()
	return Donor{
		ID:       id,
		Name:     n.Name,
		Blood:    n.Blood,
		Organ:    n.Organ,
		Location: n.Location,
		Contact:  n.Contact,
		Created:  created.UnixMilli(),
	}
}

// Field names used in validation errors and the persisted JSON shape.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldBlood    = "blood"
	FieldOrgan    = "organ"
	FieldLocation = "location"
	FieldContact  = "contact"
)

func missingRequired(name, blood, location, contact string) []string {
	var missing []string
	for _, f := range []struct {
		field string
		value string
	}{
		{FieldName, name},
		{FieldBlood, blood},
		{FieldLocation, location},
		{FieldContact, contact},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.field)
		}
	}
	return missing
}

// Stats are aggregate counts over the full, unfiltered collection.
type Stats struct {
	Total       int `json:"total"`
	BloodDonors int `json:"blood_donor_count"`
	OrganDonors int `json:"organ_donor_count"`
}
