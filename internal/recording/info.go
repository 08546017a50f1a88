package recording

import (
	"fmt"
	"strings"
	"time"
)

// AnonymizedText replaces identifying free-text header fields.
const AnonymizedText = "mne_anonymize"

// AnonymizedDescription replaces the recording description.
const AnonymizedDescription = "Anonymized using a time shift to preserve age at acquisition"

// AnonymizedMeasDate is the measurement date every anonymized recording carries.
var AnonymizedMeasDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Sex codes follow the FIFF convention.
const (
	SexUnknown = 0
	SexMale    = 1
	SexFemale  = 2
)

// Info carries the measurement header fields a recording exposes. Identifying
// fields are rewritten by AnonymizeInfo; the acquisition facts are kept.
type Info struct {
	MeasDate     *time.Time   `json:"meas_date,omitempty"`
	Experimenter string       `json:"experimenter,omitempty"`
	Description  string       `json:"description,omitempty"`
	ProjectName  string       `json:"proj_name,omitempty"`
	ProjectID    int          `json:"proj_id,omitempty"`
	Device       DeviceInfo   `json:"device_info"`
	Subject      *SubjectInfo `json:"subject_info,omitempty"`

	Channels     int     `json:"nchan"`
	SamplingRate float64 `json:"sfreq"`
	Duration     float64 `json:"duration"`
}

// DeviceInfo describes the acquisition system.
type DeviceInfo struct {
	Type   string `json:"type,omitempty"`
	Model  string `json:"model,omitempty"`
	Serial string `json:"serial,omitempty"`
	Site   string `json:"site,omitempty"`
}

// SubjectInfo is the participant block of the header. Birthday uses the
// YYYY-MM-DD form.
type SubjectInfo struct {
	ID         int    `json:"id"`
	HISID      string `json:"his_id,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
	Sex        int    `json:"sex"`
	Hand       int    `json:"hand,omitempty"`
}

// AnonymizeInfo rewrites identifying header fields in place. The measurement
// date moves to AnonymizedMeasDate and the birthday moves by the same amount,
// so age at acquisition survives. Without a measurement date the birthday is
// dropped. Sex and handedness are kept.
func AnonymizeInfo(info *Info) error {
	if info == nil {
		return fmt.Errorf("anonymize: nil info")
	}

	var shift time.Duration
	if info.MeasDate != nil {
		shift = info.MeasDate.UTC().Sub(AnonymizedMeasDate)
		date := AnonymizedMeasDate
		info.MeasDate = &date
	}

	info.Experimenter = anonymizeText(info.Experimenter)
	info.ProjectName = anonymizeText(info.ProjectName)
	info.ProjectID = 0
	info.Device.Serial = anonymizeText(info.Device.Serial)
	info.Device.Site = anonymizeText(info.Device.Site)
	if info.Description != "" {
		info.Description = AnonymizedDescription
	}

	if subject := info.Subject; subject != nil {
		subject.ID = 0
		subject.HISID = AnonymizedText
		subject.LastName = anonymizeText(subject.LastName)
		subject.FirstName = anonymizeText(subject.FirstName)
		subject.MiddleName = anonymizeText(subject.MiddleName)
		if subject.Birthday != "" {
			if info.MeasDate == nil {
				subject.Birthday = ""
			} else {
				shifted, err := shiftDate(subject.Birthday, shift)
				if err != nil {
					return fmt.Errorf("anonymize: %w", err)
				}
				subject.Birthday = shifted
			}
		}
	}
	return nil
}

func anonymizeText(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return AnonymizedText
}

func shiftDate(value string, shift time.Duration) (string, error) {
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("parse birthday %q: %w", value, err)
	}
	return day.Add(-shift).Format(time.DateOnly), nil
}
