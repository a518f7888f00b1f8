package service

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzx0713/FreeChat/internal/model"
	"github.com/lzx0713/FreeChat/internal/repository"
)

func setupFileService(t *testing.T) (IFileService, *miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewFileService(repository.NewFileRepository(client)), mr, client
}

func TestFileService_SaveAndList(t *testing.T) {
	svc, _, _ := setupFileService(t)
	ctx := context.Background()

	t.Run("round trip keeps fileId and fileName", func(t *testing.T) {
		saved, err := svc.SaveFile(ctx, &SaveFileRequest{
			FileID:   "BQACAgUAAx0",
			FileName: "report.pdf",
			FileSize: 2048,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.NotEmpty(t, saved.UploadedAt)
		assert.Equal(t, model.DefaultUser, saved.UploadedBy)

		files := svc.ListFiles(ctx)
		require.Len(t, files, 1)
		assert.Equal(t, "BQACAgUAAx0", files[0].FileID)
		assert.Equal(t, "report.pdf", files[0].FileName)
	})

	t.Run("listing is newest first", func(t *testing.T) {
		_, err := svc.SaveFile(ctx, &SaveFileRequest{FileID: "second", FileName: "b.txt"})
		require.NoError(t, err)

		files := svc.ListFiles(ctx)
		require.Len(t, files, 2)
		assert.Equal(t, "second", files[0].FileID)
		assert.Equal(t, "BQACAgUAAx0", files[1].FileID)
	})

	t.Run("missing required fields rejected", func(t *testing.T) {
		_, err := svc.SaveFile(ctx, &SaveFileRequest{FileName: "orphan.txt"})
		assert.ErrorIs(t, err, ErrMissingFileFields)

		_, err = svc.SaveFile(ctx, &SaveFileRequest{FileID: "no-name"})
		assert.ErrorIs(t, err, ErrMissingFileFields)
	})
}

func TestFileService_Delete(t *testing.T) {
	svc, _, _ := setupFileService(t)
	ctx := context.Background()

	t.Run("missing id rejected", func(t *testing.T) {
		_, err := svc.DeleteFile(ctx, "")
		assert.ErrorIs(t, err, ErrMissingFileID)
	})

	t.Run("delete removes the record and leaves the rest intact", func(t *testing.T) {
		first, err := svc.SaveFile(ctx, &SaveFileRequest{FileID: "tg-1", FileName: "a.txt", FileSize: 1, UploadedBy: "alice"})
		require.NoError(t, err)
		second, err := svc.SaveFile(ctx, &SaveFileRequest{FileID: "tg-2", FileName: "b.txt", FileSize: 2, UploadedBy: "bob"})
		require.NoError(t, err)

		found, err := svc.DeleteFile(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, found)

		files := svc.ListFiles(ctx)
		require.Len(t, files, 1)
		assert.Equal(t, second.ID, files[0].ID)
		assert.Equal(t, "b.txt", files[0].FileName)
		assert.Equal(t, int64(2), files[0].FileSize)
		assert.Equal(t, "bob", files[0].UploadedBy)
	})
}

// genFileName generates plausible file names for property testing
func genFileName() gopter.Gen {
	return gen.Identifier().Map(func(s string) string {
		return s + ".bin"
	})
}

func TestFileService_DeleteProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("deleting one record never touches the others", prop.ForAll(
		func(names []string, victim uint8) bool {
			if len(names) == 0 {
				return true
			}

			svc, mr, _ := setupFileServiceRaw(t)
			defer mr.Close()
			ctx := context.Background()

			ids := make([]string, 0, len(names))
			for i, name := range names {
				saved, err := svc.SaveFile(ctx, &SaveFileRequest{
					FileID:   fmt.Sprintf("tg-%d", i),
					FileName: name,
				})
				if err != nil {
					return false
				}
				ids = append(ids, saved.ID)
			}

			target := ids[int(victim)%len(ids)]
			found, err := svc.DeleteFile(ctx, target)
			if err != nil || !found {
				return false
			}

			remaining := svc.ListFiles(ctx)
			if len(remaining) != len(ids)-1 {
				return false
			}
			for _, f := range remaining {
				if f.ID == target {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, genFileName()),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func setupFileServiceRaw(t *testing.T) (IFileService, *miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFileService(repository.NewFileRepository(client)), mr, client
}
