package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document represents an uploaded document whose text has been extracted
type Document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename  string             `bson:"filename" json:"filename"`
	FileType  string             `bson:"fileType" json:"fileType"` // txt, pdf, docx
	MimeType  string             `bson:"mimeType" json:"mimeType"`
	Checksum  string             `bson:"checksum" json:"checksum"` // xxhash64 of the extracted text
	Text      string             `bson:"text" json:"-"`
	Runes     int                `bson:"runes" json:"runes"`
	SizeBytes int64              `bson:"sizeBytes" json:"sizeBytes"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// DocumentResponse represents the response from the documents endpoint
type DocumentResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	FileType  string `json:"fileType"`
	Runes     int    `json:"runes"`
	Duplicate bool   `json:"duplicate"`
}
