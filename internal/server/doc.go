// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理暴露 Prometheus 指标的 HTTP 服务器生命周期，
支持非阻塞启动与优雅关闭。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/Shutdown/Errors 等生命周期方法。
  - Config：监听地址、指标路径、读写超时与优雅关闭超时。

# 主要能力

  - NewMetricsManager 使用 promhttp.HandlerFor 在配置路径暴露指标，
    并提供 /healthz 存活检查。
  - Start 在后台 goroutine 中运行服务；Addr 返回实际监听地址，
    配合 ":0" 随机端口便于测试。
  - Shutdown 在配置的超时内完成请求排空与连接释放，可重复调用。
*/
package server
