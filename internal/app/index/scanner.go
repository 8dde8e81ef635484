package index

import (
	"errors"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dhowden/tag"
)

const (
	roleArtist      = "artist"
	roleAlbumArtist = "album_artist"
)

var supportedExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
	".aiff": true,
	".wav":  true,
}

// Raw tag keys carrying fields the tag library has no accessor for.
var (
	lyricistKeys = []string{"TEXT", "lyricist", "LYRICIST"}
	labelKeys    = []string{"TPUB", "label", "LABEL", "organization", "ORGANIZATION", "publisher"}
)

type scannedSong struct {
	Song
	artists      []string
	albumArtists []string
}

type scannedDirectory struct {
	Directory
	artists []string
}

type scanner struct {
	artRegex  *regexp.Regexp
	dateAdded map[string]int64

	directories []scannedDirectory
	songs       []scannedSong
}

// scanDir records the directory at real (exposed as virtual) and everything below it.
func (s *scanner) scanDir(real, virtual string, parent *string) {
	entries, err := os.ReadDir(real)
	if err != nil {
		log.Printf("[INDEX] Error reading directory %q: %v", real, err)
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	dir := scannedDirectory{Directory: Directory{Path: virtual, Parent: parent}}
	if added, ok := s.dateAdded[virtual]; ok {
		dir.DateAdded = added
	} else if info, err := os.Stat(real); err == nil {
		dir.DateAdded = info.ModTime().Unix()
	} else {
		dir.DateAdded = time.Now().Unix()
	}

	for _, e := range entries {
		if !e.IsDir() && s.artRegex != nil && s.artRegex.MatchString(e.Name()) {
			art := path.Join(virtual, e.Name())
			dir.Artwork = &art
			break
		}
	}

	var songs []scannedSong
	var subdirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
			continue
		}
		if !supportedExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		sg, ok := readSong(filepath.Join(real, e.Name()))
		if !ok {
			continue
		}
		sg.Path = path.Join(virtual, e.Name())
		sg.Parent = virtual
		sg.Artwork = dir.Artwork
		songs = append(songs, sg)
	}

	summarize(&dir, songs)
	s.directories = append(s.directories, dir)
	s.songs = append(s.songs, songs...)

	for _, e := range subdirs {
		p := virtual
		s.scanDir(filepath.Join(real, e.Name()), path.Join(virtual, e.Name()), &p)
	}
}

// summarize fills directory album fields from the songs directly inside it.
// Album and year are only set when every song that has them agrees.
func summarize(dir *scannedDirectory, songs []scannedSong) {
	var album *string
	var year *int64
	albumConsistent, yearConsistent := true, true
	for _, sg := range songs {
		if sg.Album != nil {
			if album == nil {
				album = sg.Album
			} else if *album != *sg.Album {
				albumConsistent = false
			}
		}
		if sg.Year != nil {
			if year == nil {
				year = sg.Year
			} else if *year != *sg.Year {
				yearConsistent = false
			}
		}
		if dir.artists == nil {
			if len(sg.albumArtists) > 0 {
				dir.artists = sg.albumArtists
			} else if len(sg.artists) > 0 {
				dir.artists = sg.artists
			}
		}
	}
	if albumConsistent {
		dir.Album = album
	}
	if yearConsistent {
		dir.Year = year
	}
}

// readSong reads the tags of the file at p. A file without tags is still a
// song; only unreadable files are skipped.
func readSong(p string) (scannedSong, bool) {
	f, err := os.Open(p)
	if err != nil {
		log.Printf("[INDEX] Error opening file %s: %v", p, err)
		return scannedSong{}, false
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return scannedSong{}, true
	}
	if err != nil {
		log.Printf("[INDEX] Error reading tags from %s: %v", p, err)
		return scannedSong{}, false
	}

	var sg scannedSong
	sg.Title = optString(meta.Title())
	sg.Album = optString(meta.Album())
	sg.Composer = optString(meta.Composer())
	sg.Genre = optString(meta.Genre())
	sg.Year = optInt(meta.Year())
	track, _ := meta.Track()
	sg.TrackNumber = optInt(track)
	disc, _ := meta.Disc()
	sg.DiscNumber = optInt(disc)

	raw := meta.Raw()
	sg.Lyricist = optString(rawString(raw, lyricistKeys))
	sg.Label = optString(rawString(raw, labelKeys))

	if a := strings.TrimSpace(meta.Artist()); a != "" {
		sg.artists = []string{a}
	}
	if a := strings.TrimSpace(meta.AlbumArtist()); a != "" {
		sg.albumArtists = []string{a}
	}
	return sg, true
}

func rawString(raw map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optInt(n int) *int64 {
	if n <= 0 {
		return nil
	}
	v := int64(n)
	return &v
}
