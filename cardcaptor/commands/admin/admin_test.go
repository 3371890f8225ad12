package admin

import (
	"context"
	"strings"
	"testing"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/repositories"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/services"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards/mock"
	"github.com/disgoorg/disgo/discord"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		filename string
		size     int
		want     error
	}{
		{filename: "a.png", size: 1024},
		{filename: "A.WEBP", size: 10 * 1024 * 1024},
		{filename: "a.svg", size: 10, want: services.ErrUnsupportedArt},
		{filename: "a.png", size: 10*1024*1024 + 1, want: services.ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			err := validateUpload(tt.filename, tt.size)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTruncateList(t *testing.T) {
	require.Equal(t, "a\nb", truncateList([]string{"a", "b"}, 100))

	items := []string{"aaaa", "bbbb", "cccc", "dddd"}
	require.Equal(t, "aaaa\nbbbb\n... and 2 more", truncateList(items, 11))
}

func TestListEmbed(t *testing.T) {
	objects := []services.ArtObject{
		{Key: "fire.png", Size: 10, Valid: true},
		{Key: "ice.png", Size: 10, Valid: true},
		{Key: "notes.txt", Size: 3},
	}
	templates := []cards.CardTemplate{{ID: 1, Name: "Fire", ArtRef: "fire.png"}}

	embed := listEmbed(objects, templates)
	require.Equal(t, "📁 Card Images", embed.Title)
	require.Len(t, embed.Fields, 3)
	require.Equal(t, "Valid Images (2)", embed.Fields[0].Name)
	require.Equal(t, "```fire.png\nice.png```", embed.Fields[0].Value)
	require.Equal(t, "Invalid Files (1)", embed.Fields[1].Name)
	require.Equal(t, "Not Spawnable Yet (1)", embed.Fields[2].Name)
	require.Contains(t, embed.Fields[2].Value, "ice.png")

	empty := listEmbed(nil, nil)
	require.Empty(t, empty.Fields)
	require.Equal(t, "No card images found.", empty.Description)
}

func TestInfoEmbed(t *testing.T) {
	store, err := services.NewDiskArtStore(t.TempDir())
	require.NoError(t, err)

	info := summarizeArt(store, []services.ArtObject{
		{Key: "a.png", Size: 1024 * 1024, Valid: true},
		{Key: "b.png", Size: 1024 * 1024 / 2, Valid: true},
		{Key: "c.txt", Size: 99},
	})
	require.True(t, info.exists)
	require.Equal(t, 2, info.valid)
	require.Equal(t, 1, info.invalid)

	embed := infoEmbed(info, repositories.CatalogCounts{Templates: 4, Spawned: 9, Claimed: 3, Owners: 2}, "sqlite")
	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	require.Equal(t, "✅ Yes", values["Folder Exists"])
	require.Equal(t, "2", values["Valid Images"])
	require.Equal(t, "1.5 MB", values["Total Size"])
	require.Equal(t, "9 / 3", values["Spawned / Claimed"])
	require.Equal(t, "sqlite", values["Database"])
}

func newDeleteFixture(t *testing.T) (*cardcaptor.Bot, *mock.MockRepository, services.ArtStore) {
	t.Helper()
	store, err := services.NewDiskArtStore(t.TempDir())
	require.NoError(t, err)
	renderer, err := services.NewCardImageService(store, services.CardImageOptions{})
	require.NoError(t, err)

	repo := mock.NewMockRepository(gomock.NewController(t))
	return &cardcaptor.Bot{
		Catalog:  cards.NewCatalog(repo),
		ArtStore: store,
		Renderer: renderer,
	}, repo, store
}

func TestDeleteCard(t *testing.T) {
	ctx := context.Background()

	t.Run("removes template and art", func(t *testing.T) {
		b, repo, store := newDeleteFixture(t)
		require.NoError(t, store.Put(ctx, "fire.png", []byte("x")))
		repo.EXPECT().Delete(gomock.Any(), "fire.png").Return(nil)

		require.NoError(t, deleteCard(ctx, b, "fire.png"))
		ok, err := store.Exists(ctx, "fire.png")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("spawned card keeps its art", func(t *testing.T) {
		b, repo, store := newDeleteFixture(t)
		require.NoError(t, store.Put(ctx, "fire.png", []byte("x")))
		repo.EXPECT().Delete(gomock.Any(), "fire.png").Return(cards.ErrTemplateInUse)

		require.ErrorIs(t, deleteCard(ctx, b, "fire.png"), cards.ErrTemplateInUse)
		ok, err := store.Exists(ctx, "fire.png")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("orphan art is removable", func(t *testing.T) {
		b, repo, store := newDeleteFixture(t)
		require.NoError(t, store.Put(ctx, "stray.png", []byte("x")))
		repo.EXPECT().Delete(gomock.Any(), "stray.png").Return(cards.ErrTemplateNotFound)

		require.NoError(t, deleteCard(ctx, b, "stray.png"))
	})

	t.Run("unknown card", func(t *testing.T) {
		b, repo, _ := newDeleteFixture(t)
		repo.EXPECT().Delete(gomock.Any(), "ghost.png").Return(cards.ErrTemplateNotFound)

		require.ErrorIs(t, deleteCard(ctx, b, "ghost.png"), cards.ErrTemplateNotFound)
	})
}

func TestCommandsAreAdminScoped(t *testing.T) {
	for _, cmd := range Commands {
		c, ok := cmd.(discord.SlashCommandCreate)
		require.True(t, ok)
		require.True(t, strings.HasPrefix(c.Description, "[ADMIN]"), c.Name)
	}
}
