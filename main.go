package main

import (
	"time"

	"dooring/config"
	"dooring/services"
)

// main 应用程序入口
// 初始化数据库、启动后台对账任务并运行HTTP服务器
func main() {
	// 初始化数据库连接和迁移
	config.InitApp()

	// 创建并配置Fiber应用
	app := config.SetupApp()

	// 启动孤儿像素事件的后台对账任务
	services.StartOrphanReconciler(time.Minute)

	// 启动服务器（阻塞直到收到终止信号）
	config.StartServer(app)
}
