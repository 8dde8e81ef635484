package index

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saecki/polaris/internal/app/vfs"
	"github.com/Saecki/polaris/internal/storage"
)

type staticMounts []vfs.MountDir

func (s staticMounts) MountDirs(context.Context) ([]vfs.MountDir, error) { return s, nil }

type staticArt string

func (s staticArt) AlbumArtRegex(context.Context) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + string(s))
}

// id3v23 builds a minimal ID3v2.3 tag followed by a few bytes of fake audio.
func id3v23(frames map[string]string) []byte {
	var body bytes.Buffer
	for _, id := range []string{"TIT2", "TPE1", "TPE2", "TALB", "TYER", "TRCK", "TPOS", "TCOM", "TEXT", "TPUB", "TCON"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		data := append([]byte{0x00}, []byte(text)...)
		body.WriteString(id)
		binary.Write(&body, binary.BigEndian, uint32(len(data)))
		body.Write([]byte{0x00, 0x00})
		body.Write(data)
	}

	size := body.Len()
	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{0x03, 0x00, 0x00})
	out.Write([]byte{byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)})
	out.Write(body.Bytes())
	out.Write(make([]byte, 32))
	return out.Bytes()
}

func writeFile(t *testing.T, p string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func setupLibrary(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	album := filepath.Join(root, "Khemmis", "Hunted")
	writeFile(t, filepath.Join(album, "01 - Above The Water.mp3"), id3v23(map[string]string{
		"TIT2": "Above The Water", "TPE1": "Khemmis", "TPE2": "Khemmis", "TALB": "Hunted",
		"TYER": "2016", "TRCK": "1/5", "TPOS": "1", "TCOM": "Phil Pendergast", "TEXT": "Ben Hutcherson", "TPUB": "20 Buck Spin",
	}))
	writeFile(t, filepath.Join(album, "02 - Three Gates.mp3"), id3v23(map[string]string{
		"TIT2": "Three Gates", "TPE1": "KHEMMIS", "TALB": "Hunted", "TYER": "2016", "TRCK": "2",
	}))
	writeFile(t, filepath.Join(album, "Folder.jpg"), []byte("not really a jpeg"))
	writeFile(t, filepath.Join(album, "notes.txt"), []byte("ignored"))

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := NewManager(db, staticMounts{{Source: root, Name: "root"}}, staticArt("Folder.(jpeg|jpg|png)"))
	require.NoError(t, m.Update(context.Background()))
	return m
}

func TestUpdateAndBrowse(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	dirs, songs, err := m.Browse(ctx, "")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "root", dirs[0].Path)
	assert.Nil(t, dirs[0].Parent)
	assert.Empty(t, songs)

	dirs, songs, err = m.Browse(ctx, "root/Khemmis/Hunted")
	require.NoError(t, err)
	assert.Empty(t, dirs)
	require.Len(t, songs, 2)

	first := songs[0]
	assert.Equal(t, "root/Khemmis/Hunted/01 - Above The Water.mp3", first.Path)
	assert.Equal(t, "root/Khemmis/Hunted", first.Parent)
	require.NotNil(t, first.Title)
	assert.Equal(t, "Above The Water", *first.Title)
	require.NotNil(t, first.TrackNumber)
	assert.Equal(t, int64(1), *first.TrackNumber)
	require.NotNil(t, first.Year)
	assert.Equal(t, int64(2016), *first.Year)
	require.NotNil(t, first.Artwork)
	assert.Equal(t, "root/Khemmis/Hunted/Folder.jpg", *first.Artwork)
	require.NotNil(t, first.Lyricist)
	assert.Equal(t, "Ben Hutcherson", *first.Lyricist)
	require.NotNil(t, first.Label)
	assert.Equal(t, "20 Buck Spin", *first.Label)
	assert.Nil(t, first.Duration)
	assert.Len(t, first.Artists, 1)
	assert.Len(t, first.AlbumArtists, 1)

	assert.Nil(t, songs[1].DiscNumber)
	assert.Empty(t, songs[1].AlbumArtists)
}

func TestBrowseUnknownDirectory(t *testing.T) {
	m := setupLibrary(t)
	_, _, err := m.Browse(context.Background(), "root/nope")
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestAlbumDirectorySummary(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	dirs, _, err := m.Browse(ctx, "root/Khemmis")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	album := dirs[0]
	require.NotNil(t, album.Album)
	assert.Equal(t, "Hunted", *album.Album)
	require.NotNil(t, album.Parent)
	assert.Equal(t, "root/Khemmis", *album.Parent)

	names, err := m.ResolveArtists(ctx, album.Artists)
	require.NoError(t, err)
	assert.Equal(t, []string{"Khemmis"}, names)

	recent, err := m.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, album.Path, recent[0].Path)

	random, err := m.Random(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, random, 1)
}

func TestFlattenAndSearch(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	all, err := m.Flatten(ctx, "root/Khemmis")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, songs, err := m.Search(ctx, "gates")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, "root/Khemmis/Hunted/02 - Three Gates.mp3", songs[0].Path)

	dirs, songs, err := m.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, dirs)
	assert.Empty(t, songs)
}

func TestResolveArtistsKeepsOrderAndDedups(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	_, songs, err := m.Browse(ctx, "root/Khemmis/Hunted")
	require.NoError(t, err)
	// "KHEMMIS" and "Khemmis" share one artist row.
	assert.Equal(t, songs[0].Artists, songs[1].Artists)
	keys := []ArtistKey{songs[1].Artists[0], songs[0].AlbumArtists[0], songs[1].Artists[0]}

	names, err := m.ResolveArtists(ctx, keys)
	require.NoError(t, err)
	assert.Equal(t, []string{"Khemmis"}, names)

	names, err = m.ResolveArtists(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestGetSongsKeepsRequestOrder(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	paths := []string{
		"root/Khemmis/Hunted/02 - Three Gates.mp3",
		"root/missing.mp3",
		"root/Khemmis/Hunted/01 - Above The Water.mp3",
	}
	songs, err := m.GetSongs(ctx, paths)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, paths[0], songs[0].Path)
	assert.Equal(t, paths[2], songs[1].Path)

	_, err = m.GetSong(ctx, "root/missing.mp3")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

func TestReindexKeepsDateAdded(t *testing.T) {
	ctx := context.Background()
	m := setupLibrary(t)

	_, err := m.db.Exec(`UPDATE directories SET date_added = 42 WHERE path = 'root/Khemmis/Hunted'`)
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx))

	dirs, _, err := m.Browse(ctx, "root/Khemmis")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, int64(42), dirs[0].DateAdded)
}

func TestUntaggedFilesAreIndexed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "untagged.mp3"), make([]byte, 256))
	writeFile(t, filepath.Join(root, "a", "raw.wav"), make([]byte, 256))

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	m := NewManager(db, staticMounts{{Source: root, Name: "root"}}, staticArt("Folder.(jpeg|jpg|png)"))
	require.NoError(t, m.Update(context.Background()))

	songs, err := m.Flatten(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "root/a/raw.wav", songs[0].Path)
	assert.Equal(t, "root/a/untagged.mp3", songs[1].Path)
	for _, sg := range songs {
		assert.Equal(t, "root/a", sg.Parent)
		assert.Nil(t, sg.Title)
		assert.Nil(t, sg.Album)
		assert.Empty(t, sg.Artists)
	}

	dirs, _, err := m.Browse(context.Background(), "root/a")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "the beatles", normalizeKey("  The   Beatles  "))
	assert.Equal(t, "", normalizeKey("  "))
}
