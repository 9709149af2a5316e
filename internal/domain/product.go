package domain

import "time"

type Product struct {
	ProductID   string    `json:"_id" dynamodbav:"product_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description" dynamodbav:"description"`
	Price       float64   `json:"price" dynamodbav:"price"`
	Category    string    `json:"category" dynamodbav:"category"`
	SubCategory string    `json:"subCategory" dynamodbav:"sub_category"`
	Sizes       []string  `json:"sizes" dynamodbav:"sizes"`
	Bestseller  bool      `json:"bestseller" dynamodbav:"bestseller"`
	Images      []string  `json:"image" dynamodbav:"images"`
	ImageKeys   []string  `json:"-" dynamodbav:"image_keys"`
	CreatedAt   time.Time `json:"date" dynamodbav:"created_at"`
}

type CreateProductRequest struct {
	Name        string   `validate:"required"`
	Description string   `validate:"required"`
	Price       float64  `validate:"gt=0"`
	Category    string   `validate:"required"`
	SubCategory string   `validate:"required"`
	Sizes       []string `validate:"required,min=1"`
	Bestseller  bool
}
