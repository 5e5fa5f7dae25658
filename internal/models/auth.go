package models

// DummyTelegramAuth — тело запроса аутентификации мини-приложения.
type DummyTelegramAuth struct {
	InitData string `json:"init_data" validate:"required"`
}

// DummyAdminLogin — тело запроса входа администратора.
type DummyAdminLogin struct {
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required"`
}
