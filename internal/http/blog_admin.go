package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"biozen-backend-go/internal/models"
	"biozen-backend-go/internal/services"
)

type BlogPostCreateRequest struct {
	Title         string  `json:"title"`
	Content       *string `json:"content"`
	Excerpt       *string `json:"excerpt"`
	FeaturedImage *string `json:"featuredImage"`
	Status        *string `json:"status"`
}

type BlogPostUpdateRequest struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Excerpt       *string `json:"excerpt"`
	FeaturedImage *string `json:"featuredImage"`
	Status        *string `json:"status"`
}

func (s *Server) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	conditions := []string{}
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("lower(title) LIKE $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.DB.Get(&total, "SELECT COUNT(*) FROM blog_posts "+where, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	query := `
SELECT ` + blogColumns + `
FROM blog_posts
` + where + `
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d`
	args = append(args, size, page*size)
	query = fmt.Sprintf(query, len(args)-1, len(args))
	rows := []models.BlogPost{}
	if err := s.DB.Select(&rows, query, args...); err != nil {
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

func (s *Server) AdminCreatePost(w http.ResponseWriter, r *http.Request) {
	adminID, _ := CurrentUserID(r)
	var req BlogPostCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		WriteError(w, http.StatusBadRequest, "Naslov je obavezan")
		return
	}
	status := "DRAFT"
	if req.Status != nil {
		switch strings.ToUpper(strings.TrimSpace(*req.Status)) {
		case "DRAFT":
		case "PUBLISHED":
			status = "PUBLISHED"
		case "ARCHIVED":
			status = "ARCHIVED"
		default:
			WriteError(w, http.StatusBadRequest, "Neispravan status")
			return
		}
	}
	slug, err := services.ResolvePostSlug(s.DB, title, 0)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	now := time.Now().UTC()
	var publishedAt *time.Time
	if status == "PUBLISHED" {
		publishedAt = &now
	}
	var id int64
	err = s.DB.Get(&id, `
INSERT INTO blog_posts (title, slug, content, excerpt, featured_image, author_id, status, published_at, created_at, view_count)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0)
RETURNING id
`, title, slug, req.Content, req.Excerpt, req.FeaturedImage, adminID, status, publishedAt, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	s.writePostByID(w, id)
}

func (s *Server) AdminGetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	s.writePostByID(w, postID)
}

func (s *Server) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	var post models.BlogPost
	if err := s.DB.Get(&post, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, postID); err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	var req BlogPostUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Neispravan zahtev")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" && strings.TrimSpace(*req.Title) != post.Title {
		post.Title = strings.TrimSpace(*req.Title)
		slug, err := services.ResolvePostSlug(s.DB, post.Title, post.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Interna greška servera")
			return
		}
		post.Slug = slug
	}
	if req.Content != nil {
		post.Content = req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = req.Excerpt
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = req.FeaturedImage
	}
	now := time.Now().UTC()
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		switch status {
		case "DRAFT", "PUBLISHED", "ARCHIVED":
		default:
			WriteError(w, http.StatusBadRequest, "Neispravan status")
			return
		}
		// published_at records the first publication only.
		if status == "PUBLISHED" && post.PublishedAt == nil {
			post.PublishedAt = &now
		}
		post.Status = status
	}
	post.UpdatedAt = &now
	_, err = s.DB.Exec(`
UPDATE blog_posts
SET title = $1, slug = $2, content = $3, excerpt = $4, featured_image = $5,
    status = $6, published_at = $7, updated_at = $8
WHERE id = $9
`, post.Title, post.Slug, post.Content, post.Excerpt, post.FeaturedImage, post.Status, post.PublishedAt, post.UpdatedAt, post.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, buildBlogPostDTO(post))
}

func (s *Server) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	result, err := s.DB.Exec(`DELETE FROM blog_posts WHERE id = $1`, postID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Članak je obrisan"})
}

// AdminPublishPost is idempotent: republishing an already published post
// leaves its original published_at untouched.
func (s *Server) AdminPublishPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	var post models.BlogPost
	if err := s.DB.Get(&post, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, postID); err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	if post.PublishedAt == nil {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	post.Status = "PUBLISHED"
	_, err = s.DB.Exec(`UPDATE blog_posts SET status = 'PUBLISHED', published_at = $1 WHERE id = $2`, post.PublishedAt, post.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	WriteJSON(w, http.StatusOK, buildBlogPostDTO(post))
}

// AdminUnpublishPost reverts to DRAFT but keeps published_at, so republishing
// does not rewrite history.
func (s *Server) AdminUnpublishPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	result, err := s.DB.Exec(`UPDATE blog_posts SET status = 'DRAFT' WHERE id = $1`, postID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Interna greška servera")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	s.writePostByID(w, postID)
}

func (s *Server) writePostByID(w http.ResponseWriter, postID int64) {
	var post models.BlogPost
	if err := s.DB.Get(&post, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, postID); err != nil {
		WriteError(w, http.StatusNotFound, "Članak nije pronađen")
		return
	}
	WriteJSON(w, http.StatusOK, buildBlogPostDTO(post))
}

func parsePostID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "postId"), 10, 64)
}
