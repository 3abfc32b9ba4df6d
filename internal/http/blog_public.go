package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/models"
)

type BlogPostDTO struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       *string    `json:"content,omitempty"`
	Excerpt       *string    `json:"excerpt,omitempty"`
	FeaturedImage *string    `json:"featuredImage,omitempty"`
	AuthorID      int64      `json:"authorId"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	ViewCount     int64      `json:"viewCount"`
}

type BlogPageDTO struct {
	Posts         []BlogPostDTO `json:"posts"`
	TotalPages    int64         `json:"totalPages"`
	TotalElements int64         `json:"totalElements"`
	CurrentPage   int           `json:"currentPage"`
}

func buildBlogPostDTO(post models.BlogPost) BlogPostDTO {
	return BlogPostDTO{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		FeaturedImage: post.FeaturedImage,
		AuthorID:      post.AuthorID,
		Status:        post.Status,
		PublishedAt:   post.PublishedAt,
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
		ViewCount:     post.ViewCount,
	}
}

func parsePagination(r *http.Request) (page, size int) {
	page = 0
	size = 10
	if raw := r.URL.Query().Get("page"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			page = value
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 && value <= 100 {
			size = value
		}
	}
	return page, size
}

const blogColumns = `id, title, slug, content, excerpt, featured_image, author_id, status, published_at, created_at, updated_at, view_count`

func (s *Server) PublicBlogList(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	var total int64
	if err := s.DB.Get(&total, `SELECT COUNT(*) FROM blog_posts WHERE status = 'PUBLISHED'`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	rows := []models.BlogPost{}
	if err := s.DB.Select(&rows, `
SELECT `+blogColumns+`
FROM blog_posts
WHERE status = 'PUBLISHED'
ORDER BY published_at DESC
LIMIT $1 OFFSET $2
`, size, page*size); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	posts := make([]BlogPostDTO, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, buildBlogPostDTO(row))
	}
	WriteJSON(w, http.StatusOK, BlogPageDTO{
		Posts:         posts,
		TotalPages:    (total + int64(size) - 1) / int64(size),
		TotalElements: total,
		CurrentPage:   page,
	})
}

// PublicBlogDetail bumps the view counter in a single atomic statement before
// reading the row, so concurrent reads never lose increments.
func (s *Server) PublicBlogDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	result, err := s.DB.Exec(`UPDATE blog_posts SET view_count = view_count + 1 WHERE slug = $1 AND status = 'PUBLISHED'`, slug)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	var post models.BlogPost
	if err := s.DB.Get(&post, `SELECT `+blogColumns+` FROM blog_posts WHERE slug = $1`, slug); err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, buildBlogPostDTO(post))
}
