// Package repository реализует хранилище данных на основе PostgreSQL
// для аккаунтов, транзакций, подписок и записей партнёрской атрибуции.
// Предоставляет узкие методы чтения и записи, которыми пользуется
// движок реконсиляции: поиск по полю, чтение по идентификатору,
// создание с генерируемым идентификатором, частичное обновление
// и атомарный инкремент счётчика.
//
// Мультидокументные транзакции намеренно не используются: дедупликация
// выполняется по схеме "прочитал-записал", восстановление после сбоев
// обеспечивается повторной доставкой вебхуков провайдером.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'transactions'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table transactions missing or query error: %w", err)
	}
	return nil
}
