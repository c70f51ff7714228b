package models

// ActivationEmail — сообщение для очереди уведомлений: письмо активации
// нового аккаунта. Публикуется сервисом реконсиляции, потребляется
// сервисом отправки.
type ActivationEmail struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	ActivationURL string `json:"activation_url"`
}
