package conversation

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Image is raster content attached to a turn, either a local upload
// preview or a returned generated/edited image. A Turn owns its Image
// exclusively; images are never shared between turns.
type Image struct {
	Data       []byte
	MIME       string
	SourcePath string // set for uploads only
	Width      int
	Height     int
}

// Turn is one exchange unit. Turns are immutable once appended to a
// History; Text may be empty for bot turns that carry only an image.
type Turn struct {
	ID        int64
	Role      Role
	Text      string
	Image     *Image
	CreatedAt time.Time
}

func (t Turn) HasImage() bool {
	return t.Image != nil && len(t.Image.Data) > 0
}
