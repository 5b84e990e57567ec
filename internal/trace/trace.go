// Package trace writes one CSV row per simulated frame for offline inspection.
package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/physics"
)

// Row is the flattened per-frame record. The ground point and normal are only
// filled while grounded.
type Row struct {
	Frame        int64   `csv:"frame"`
	Scene        string  `csv:"scene"`
	PosX         float64 `csv:"pos_x"`
	PosY         float64 `csv:"pos_y"`
	PosZ         float64 `csv:"pos_z"`
	VelX         float64 `csv:"vel_x"`
	VelY         float64 `csv:"vel_y"`
	VelZ         float64 `csv:"vel_z"`
	Speed        float64 `csv:"speed"`
	UpX          float64 `csv:"up_x"`
	UpY          float64 `csv:"up_y"`
	UpZ          float64 `csv:"up_z"`
	GravX        float64 `csv:"grav_x"`
	GravY        float64 `csv:"grav_y"`
	GravZ        float64 `csv:"grav_z"`
	Grounded     bool    `csv:"grounded"`
	GroundPointX float64 `csv:"ground_point_x"`
	GroundPointY float64 `csv:"ground_point_y"`
	GroundPointZ float64 `csv:"ground_point_z"`
	NormalX      float64 `csv:"ground_normal_x"`
	NormalY      float64 `csv:"ground_normal_y"`
	NormalZ      float64 `csv:"ground_normal_z"`
	SinceGround  int     `csv:"frames_since_grounded"`
	SinceJump    int     `csv:"frames_since_jump"`
	JumpSpeed    float64 `csv:"jump_speed"`
	Contacts     int     `csv:"contacts"`
	GroundHits   int     `csv:"ground_hits"`
	Snapped      bool    `csv:"snapped"`
}

func NewRow(scene string, f physics.Frame) Row {
	r := Row{
		Frame:       f.Index,
		Scene:       scene,
		PosX:        f.Position.X,
		PosY:        f.Position.Y,
		PosZ:        f.Position.Z,
		VelX:        f.Velocity.X,
		VelY:        f.Velocity.Y,
		VelZ:        f.Velocity.Z,
		UpX:         f.Up.X,
		UpY:         f.Up.Y,
		UpZ:         f.Up.Z,
		GravX:       f.Gravity.X,
		GravY:       f.Gravity.Y,
		GravZ:       f.Gravity.Z,
		Grounded:    f.Ground.Grounded,
		SinceGround: f.Ground.FramesSinceGrounded,
		SinceJump:   f.Ground.FramesSinceJump,
		JumpSpeed:   f.JumpSpeed,
		Contacts:    f.Contacts,
		GroundHits:  f.GroundHits,
		Snapped:     f.Snapped,
	}
	r.Speed = r3.Norm(f.Velocity)
	if f.Ground.Grounded {
		r.GroundPointX, r.GroundPointY, r.GroundPointZ = f.Ground.Point.X, f.Ground.Point.Y, f.Ground.Point.Z
		r.NormalX, r.NormalY, r.NormalZ = f.Ground.Normal.X, f.Ground.Normal.Y, f.Ground.Normal.Z
	}
	return r
}

// Recorder appends rows to a CSV stream. A nil *Recorder discards everything.
type Recorder struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	rows          int
}

// Create opens path for writing. It returns nil when path is empty.
func Create(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	return &Recorder{w: f, closer: f}, nil
}

// NewRecorder writes to w without taking ownership of it.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

func (r *Recorder) Write(row Row) error {
	if r == nil {
		return nil
	}
	records := []Row{row}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	r.rows++
	return nil
}

func (r *Recorder) Rows() int {
	if r == nil {
		return 0
	}
	return r.rows
}

func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Read parses a trace previously written by a Recorder.
func Read(in io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(in, &rows); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return rows, nil
}
