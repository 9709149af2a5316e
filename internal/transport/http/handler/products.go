package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/storefront-api/internal/application/product"
	"github.com/storefront-api/internal/domain"
)

const maxProductForm = 32 << 20

// ProductHandler serves the catalogue.
type ProductHandler struct {
	svc product.Service
}

func NewProductHandler(svc product.Service) *ProductHandler { return &ProductHandler{svc: svc} }

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductsEnvelope{Success: true, Products: products})
}

func (h *ProductHandler) Single(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"productId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.Get(r.Context(), body.ProductID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductEnvelope{Success: true, Product: p})
}

// Add accepts the admin panel's multipart form with up to four image parts
// named image1..image4.
func (h *ProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProductForm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	req, err := productRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var images []product.ImageInput
	for i := 1; i <= product.MaxImages; i++ {
		f, header, err := r.FormFile(fmt.Sprintf("image%d", i))
		if err != nil {
			continue
		}
		defer f.Close()
		images = append(images, product.ImageInput{
			Reader:      f,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	p, err := h.svc.Add(r.Context(), req, images)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProductEnvelope{Success: true, Message: "Product Added", Product: p})
}

func (h *ProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.Remove(r.Context(), body.ID); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product Removed")
}

func productRequest(r *http.Request) (domain.CreateProductRequest, error) {
	req := domain.CreateProductRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		SubCategory: r.FormValue("subCategory"),
		Bestseller:  r.FormValue("bestseller") == "true",
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		return req, fmt.Errorf("price must be a number")
	}
	req.Price = price
	if raw := r.FormValue("sizes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Sizes); err != nil {
			return req, fmt.Errorf("sizes must be a JSON array of strings")
		}
	}
	return req, nil
}
