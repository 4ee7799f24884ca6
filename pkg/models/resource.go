package models

// ResourceKind classifies a shared resource.
type ResourceKind string

const (
	ResourceLink      ResourceKind = "link"
	ResourceFile      ResourceKind = "file"
	ResourceVideo     ResourceKind = "video"
	ResourceWorksheet ResourceKind = "worksheet"
	ResourceBook      ResourceKind = "book"
	ResourceOther     ResourceKind = "other"
)

// Resource is learning material shared on the platform. It points either at
// a URL or at an uploaded file in object storage.
type Resource struct {
	ID          ID           `json:"id"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description,omitempty" validate:"max=2000"`
	Kind        ResourceKind `json:"kind" validate:"required,oneof=link file video worksheet book other"`
	URL         string       `json:"url,omitempty" validate:"omitempty,url"`
	FilePath    string       `json:"filePath,omitempty"`
	Tags        []string     `json:"tags,omitempty" validate:"max=32,dive,required,max=64"`
	Visibility  Visibility   `json:"visibility,omitempty" validate:"omitempty,oneof=private public"`
	OwnerID     ID           `json:"ownerId,omitempty"`
	Timestamps
}

func (r Resource) EntityID() ID { return r.ID }

// HasFile reports whether the resource is backed by an uploaded file.
func (r Resource) HasFile() bool { return r.FilePath != "" }

// HasURL reports whether the resource links to an external URL.
func (r Resource) HasURL() bool { return r.URL != "" }
