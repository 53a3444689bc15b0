package wire

import (
	"wenshu-novel-api/internal/application/library"
	"wenshu-novel-api/internal/infrastructure/messaging"
	"wenshu-novel-api/internal/interfaces/http/router"
)

// App API 服务依赖容器
// Persister 与 Publisher 只通过订阅书库工作，持有它们以绑定生命周期
type App struct {
	Router    *router.Router
	Persister *library.Persister
	Publisher *messaging.ChangePublisher
}
