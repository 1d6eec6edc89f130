package planner

import "time"

const defaultReadTime = "10 min read"

// Topic is a reusable proposal template.
type Topic struct {
	Topic    string
	Focus    string
	Keywords string
}

type dayTopics struct {
	Primary      []Topic
	Alternatives []Topic
}

type category struct {
	Category string
	Icon     string
	Tags     []string
}

// Each weekday has a theme.
var categories = map[time.Weekday]category{
	time.Monday:    {"aws", "☁️", []string{"AWS", "Cloud Infrastructure", "Cloud Services"}},
	time.Tuesday:   {"devops", "⚙️", []string{"DevOps", "Automation", "CI/CD"}},
	time.Wednesday: {"security", "🔒", []string{"Security", "DevSecOps", "Threat Detection"}},
	time.Thursday:  {"infrastructure", "🏗️", []string{"Infrastructure as Code", "IaC", "Terraform"}},
	time.Friday:    {"containers", "🐳", []string{"Kubernetes", "Docker", "Container Orchestration"}},
}

var topicsByDay = map[time.Weekday]dayTopics{
	time.Monday: {
		Primary: []Topic{
			{"AWS Cost Optimization Strategies", "Reducing AWS spend through right-sizing, reserved capacity and resource hygiene", "AWS cost optimization, reserved instances, right-sizing"},
			{"AWS Lambda Best Practices", "Tuning Lambda functions for performance, cost and reliability", "AWS Lambda, serverless, cold starts"},
			{"Amazon S3 Storage Optimization", "Lifecycle policies, intelligent tiering and storage cost control", "S3, lifecycle policies, intelligent tiering"},
			{"CloudFront CDN Optimization", "Caching strategies and origin tuning for CloudFront", "CloudFront, CDN, caching"},
			{"Multi-Region AWS Architecture", "Designing resilient multi-region systems for availability and recovery", "multi-region, disaster recovery, resilience"},
		},
		Alternatives: []Topic{
			{"EC2 Instance Optimization", "Choosing and tuning EC2 instance families", "EC2, instance types"},
			{"AWS Networking Fundamentals", "VPCs, subnets, routing and network security", "VPC, subnets, routing"},
			{"AWS Monitoring and Observability", "CloudWatch, X-Ray and tracing in practice", "CloudWatch, X-Ray, observability"},
		},
	},
	time.Tuesday: {
		Primary: []Topic{
			{"CI/CD Pipeline Optimization", "Faster and more reliable build and deploy pipelines", "CI/CD, pipeline optimization, build performance"},
			{"GitHub Actions Best Practices", "Workflow structure, caching and security for GitHub Actions", "GitHub Actions, workflows, automation"},
			{"Deployment Strategies and Rollbacks", "Blue-green, canary and rolling deployments with automated rollback", "blue-green, canary, rollback"},
			{"Infrastructure Monitoring and Alerting", "Actionable alerting for infrastructure and applications", "monitoring, alerting, observability"},
		},
		Alternatives: []Topic{
			{"Configuration Management Tools", "Ansible, Puppet and Chef compared", "Ansible, Puppet, Chef"},
			{"DevOps Metrics and KPIs", "Measuring delivery with DORA metrics", "DORA metrics, KPIs"},
			{"Infrastructure Testing Strategies", "Testing infrastructure code for reliability and compliance", "infrastructure testing, compliance"},
		},
	},
	time.Wednesday: {
		Primary: []Topic{
			{"Vulnerability Management Best Practices", "Scanning, triage and remediation workflows", "vulnerability management, scanning, remediation"},
			{"Secrets Management in DevOps", "Secrets Manager, Vault and CI secrets done safely", "secrets management, Vault, credentials"},
			{"SAST and DAST Integration", "Static and dynamic security testing inside CI/CD", "SAST, DAST, application security"},
			{"DevSecOps Pipeline Implementation", "Shift-left security checks built into pipelines", "DevSecOps, shift-left, pipeline security"},
		},
		Alternatives: []Topic{
			{"Container Security Best Practices", "Securing images, registries and runtimes", "container security, image scanning"},
			{"Cloud Security Posture Management", "Keeping cloud posture in check across providers", "CSPM, cloud compliance"},
			{"Security Incident Response", "Runbooks and automation for security events", "incident response, security operations"},
		},
	},
	time.Thursday: {
		Primary: []Topic{
			{"Terraform State Management", "Remote backends, locking and state hygiene", "Terraform, state management, remote backend"},
			{"Terraform Modules and Reusability", "Designing reusable modules for common patterns", "Terraform modules, code reuse"},
			{"OpenTofu vs Terraform", "Differences, migration paths and when to pick each", "OpenTofu, Terraform, migration"},
			{"Infrastructure Testing with Terratest", "Automated tests for infrastructure code", "Terratest, IaC testing"},
		},
		Alternatives: []Topic{
			{"Terraform Workspaces and Environments", "Managing many environments with workspaces", "Terraform workspaces, environments"},
			{"Infrastructure Drift Detection", "Finding and fixing drift in managed infrastructure", "drift detection, Terraform"},
			{"Pulumi: Code-Based Infrastructure", "Infrastructure in general-purpose languages", "Pulumi, IaC"},
		},
	},
	time.Friday: {
		Primary: []Topic{
			{"Kubernetes Deployment Strategies", "Rolling, blue-green and canary deployments on Kubernetes", "Kubernetes, deployment strategies, canary"},
			{"Kubernetes Resource Management", "Requests, limits and autoscaling that fit the workload", "Kubernetes, autoscaling, resource limits"},
			{"Docker Best Practices", "Smaller, safer images with multi-stage builds", "Docker, multi-stage builds, image security"},
			{"GitOps with ArgoCD", "Declarative delivery to Kubernetes with ArgoCD", "GitOps, ArgoCD, continuous deployment"},
		},
		Alternatives: []Topic{
			{"Kubernetes Monitoring and Observability", "Prometheus and Grafana for clusters and apps", "Prometheus, Grafana, Kubernetes monitoring"},
			{"Container Registry Management", "Registries, retention and image scanning", "container registry, image scanning"},
			{"Kubernetes Networking Deep Dive", "CNI plugins and network policies explained", "CNI, network policies"},
		},
	},
}
