package models

import (
	"github.com/pgvector/pgvector-go"
)

// WikiChunk is one embedded slice of a scraped article. The corpus is
// populated by an upstream ingestion job; this service only reads it.
type WikiChunk struct {
	ID         string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DocID      string          `gorm:"column:doc_id;type:text;index" json:"doc_id"`
	Title      string          `gorm:"column:title;type:text" json:"title"`
	URL        string          `gorm:"column:url;type:text" json:"url"`
	ChunkIndex int             `gorm:"column:chunk_index" json:"chunk_index"`
	Content    string          `gorm:"column:content;type:text" json:"content"`
	Embedding  pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`
}

func (WikiChunk) TableName() string { return "wiki_chunks" }
