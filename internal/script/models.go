package script

// Timecode is a timestamped annotation with an optional attached image.
// ImageURL is a store-relative reference ("/images/<project>/<id>.png"),
// never an absolute filesystem path.
type Timecode struct {
	ID       string  `json:"id"`
	InTime   float64 `json:"inTime"`
	OutTime  float64 `json:"outTime"`
	Text     string  `json:"text"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Scene is an ordered narrative unit. Its timecodes and audios entries are
// denormalized copies of root-level timecodes, kept in sync by the store:
// timecode field updates fan out root -> scenes, never the other direction.
type Scene struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Locution    string     `json:"locution,omitempty"`
	Audio       string     `json:"audio,omitempty"`
	Timecodes   []Timecode `json:"timecodes"`
	Audios      []Timecode `json:"audios"`
}

// Document is the sole unit of persistence, one per project directory.
type Document struct {
	Timecodes []Timecode `json:"timecodes"`
	Script    []Scene    `json:"script"`
}

// NewDocument returns an empty document with non-nil collections so it
// serializes as {"timecodes": [], "script": []}.
func NewDocument() *Document {
	return &Document{
		Timecodes: []Timecode{},
		Script:    []Scene{},
	}
}

// TimecodePatch is a partial update to a timecode. Nil fields are untouched.
type TimecodePatch struct {
	InTime   *float64 `json:"inTime"`
	OutTime  *float64 `json:"outTime"`
	Text     *string  `json:"text"`
	ImageURL *string  `json:"imageUrl"`
}

func (p TimecodePatch) apply(tc *Timecode) {
	if p.InTime != nil {
		tc.InTime = *p.InTime
	}
	if p.OutTime != nil {
		tc.OutTime = *p.OutTime
	}
	if p.Text != nil {
		tc.Text = *p.Text
	}
	if p.ImageURL != nil {
		tc.ImageURL = *p.ImageURL
	}
}

// ScenePatch is a partial update to a scene's own fields. It deliberately
// does not touch root-level timecodes; see the package doc.
type ScenePatch struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Locution    *string     `json:"locution"`
	Audio       *string     `json:"audio"`
	Timecodes   *[]Timecode `json:"timecodes"`
	Audios      *[]Timecode `json:"audios"`
}

func (p ScenePatch) apply(sc *Scene) {
	if p.Name != nil {
		sc.Name = *p.Name
	}
	if p.Description != nil {
		sc.Description = *p.Description
	}
	if p.Locution != nil {
		sc.Locution = *p.Locution
	}
	if p.Audio != nil {
		sc.Audio = *p.Audio
	}
	if p.Timecodes != nil {
		sc.Timecodes = *p.Timecodes
	}
	if p.Audios != nil {
		sc.Audios = *p.Audios
	}
}

// ReferencedImages returns the image file names referenced by the root
// timecode collection. Scene-embedded copies reference the same ids, so the
// root scan is sufficient for snapshot creation.
func (d *Document) ReferencedImages() []string {
	names := make([]string, 0, len(d.Timecodes))
	for _, tc := range d.Timecodes {
		if name := imageBasename(tc.ImageURL); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func imageBasename(url string) string {
	if url == "" {
		return ""
	}
	for i := len(url) - 1; i >= 0; i-- {
		if url[i] == '/' {
			return url[i+1:]
		}
	}
	return url
}
