package models

import "time"

type Cabin struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Price       int64     `yaml:"price" json:"price"`
	MaxGuests   int       `yaml:"max_guests" json:"max_guests"`
	Amenities   []string  `yaml:"amenities" json:"amenities"`
	Images      []string  `yaml:"images" json:"images"`
	SortOrder   int64     `yaml:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `yaml:"-" json:"created_at"`
	UpdatedAt   time.Time `yaml:"-" json:"updated_at"`
}
