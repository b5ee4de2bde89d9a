package escprint

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Capabilities describes the paper and the character generator of the
// printer.  It is queried on every operation.
type Capabilities interface {
	// LineWidth is the number of rule glyphs that fill one line.
	LineWidth() int
	// LineCharWidth is the number of character cells per line at the font
	// size.
	LineCharWidth(fontSize int) int
	// ImageMaxWidth is the printable width in dots.
	ImageMaxWidth() int
}

// Profile is a Capabilities value for a paper width.
type Profile struct {
	Name        string
	Description string
	// Rule is the line width in rule glyphs.
	Rule int
	// Chars is the number of character cells per line, indexed by font size.
	// Sizes outside of the table use the first entry.
	Chars []int
	// ImageWidth is the printable width in dots.
	ImageWidth int
}

func (p Profile) LineWidth() int     { return p.Rule }
func (p Profile) ImageMaxWidth() int { return p.ImageWidth }

func (p Profile) LineCharWidth(fontSize int) int {
	if len(p.Chars) == 0 {
		return 0
	}
	if fontSize < 0 || len(p.Chars) <= fontSize {
		return p.Chars[0]
	}
	return p.Chars[fontSize]
}

var (
	ErrProfileNotFound = errors.New("profile not found")
	errStop            = errors.New("stop")
	errInvalid         = errors.New("invalid value")
)

//go:embed profiles.csv
var profileCatalogue string

// DefaultProfile is the profile of the 58 mm paper.
var DefaultProfile Profile

const defaultProfile = "58mm"

func init() {
	p, err := ProfileByName(defaultProfile)
	if err != nil {
		panic(fmt.Errorf("failed to load default profile %q: %w", defaultProfile, err))
	}
	DefaultProfile = p
}

// LoadProfileCatalogue reads the built-in profile catalogue, calling cb for
// every profile.  Returning a non-nil error from cb stops the iteration and
// the error is returned, unless it is errStop.
func LoadProfileCatalogue(cb func(Profile) error) error {
	return readProfiles(strings.NewReader(profileCatalogue), cb)
}

func readProfiles(r io.Reader, cb func(Profile) error) error {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("profile catalogue header: %w", err)
	}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		rec := make(map[string]string, len(header))
		for i, key := range header {
			rec[key] = row[i]
		}
		p, err := parseProfile(rec)
		if err != nil {
			return fmt.Errorf("profile catalogue line %d: %w", line, err)
		}
		if err := cb(p); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func parseProfile(rec map[string]string) (Profile, error) {
	p := Profile{
		Name:        rec["name"],
		Description: rec["description"],
	}
	if p.Name == "" {
		return p, fmt.Errorf("%w: empty name", errInvalid)
	}
	var err error
	if p.Rule, err = atoiv(rec["rule"], 0, 255); err != nil {
		return p, fmt.Errorf("rule: %w", err)
	}
	if p.ImageWidth, err = atoiv(rec["image_width"], 0, 65535); err != nil {
		return p, fmt.Errorf("image_width: %w", err)
	}
	for _, s := range strings.Fields(rec["chars"]) {
		n, err := atoiv(s, 0, 255)
		if err != nil {
			return p, fmt.Errorf("chars: %w", err)
		}
		p.Chars = append(p.Chars, n)
	}
	if len(p.Chars) == 0 {
		return p, fmt.Errorf("%w: no chars", errInvalid)
	}
	return p, nil
}

// atoiv parses s as an integer in (lo, hi].
func atoiv(s string, lo, hi int) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	} else if y <= lo || hi < y {
		return 0, fmt.Errorf("%w: %d", errInvalid, y)
	}
	return y, nil
}

// ProfileByName returns the named profile from the built-in catalogue.
func ProfileByName(name string) (Profile, error) {
	var (
		found Profile
		ok    bool
	)
	if err := LoadProfileCatalogue(func(p Profile) error {
		if p.Name == name {
			found, ok = p, true
			return errStop
		}
		return nil
	}); err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, fmt.Errorf("%q: %w", name, ErrProfileNotFound)
	}
	return found, nil
}

// AllProfiles returns all profiles of the built-in catalogue, in catalogue
// order.
func AllProfiles() ([]Profile, error) {
	var pp []Profile
	if err := LoadProfileCatalogue(func(p Profile) error {
		pp = append(pp, p)
		return nil
	}); err != nil {
		return nil, err
	}
	return pp, nil
}
