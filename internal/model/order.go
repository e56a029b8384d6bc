package model

import "time"

// Order — заявка на услугу с публичной формы сайта.
// Вложение хранится на диске (fileserver), в БД — только ключ и метаданные.
type Order struct {
	ID           int64     `json:"id"`
	Service      string    `json:"service"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Whatsapp     string    `json:"whatsapp"`
	Description  string    `json:"description"`
	Budget       string    `json:"budget"`
	DeliveryTime string    `json:"delivery_time"`
	FileKey      string    `json:"-"` // пусто = без вложения
	FileName     string    `json:"file_name,omitempty"`
	FileSize     int64     `json:"file_size,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasAttachment сообщает, есть ли у заказа файл-вложение. Ключ хранилища
// наружу не сериализуется, поэтому после декодирования JSON признаком
// вложения остаётся имя файла.
func (o *Order) HasAttachment() bool { return o.FileKey != "" || o.FileName != "" }
