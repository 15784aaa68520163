package model

// Brands lists the brands the shop carries.
var Brands = []string{
	"Eudora", "O Boticário", "Jequiti", "Avon", "Mary Kay", "Natura",
	"Oui-Original-Unique-Individuel", "Pierre Alexander",
	"Tupperware", "Outra",
}

// Styles lists the product lines used to group the catalogue.
var Styles = []string{
	"Perfumaria", "Skincare", "Cabelo", "Corpo e Banho", "Make",
	"Masculinos", "Femininos Nina Secrets", "Marcas", "Infantil",
	"Casa", "Solar", "Maquiage", "Teen", "Kits e Presentes",
	"Cuidados com o Corpo", "Lançamentos",
	"Acessórios de Casa", "Outro",
}

// Types lists the product types.
var Types = []string{
	"Perfumaria masculina", "Perfumaria feminina", "Body splash",
	"Body spray", "Eau de parfum", "Desodorantes",
	"Perfumaria infantil", "Perfumaria vegana", "Família olfativa",
	"Clareador de manchas", "Anti-idade", "Protetor solar facial",
	"Rosto", "Tratamento para o rosto", "Acne", "Limpeza",
	"Esfoliante", "Tônico facial",
	"Kits de tratamento", "Tratamento para cabelos", "Shampoo",
	"Condicionador", "Leave-in e Creme para Pentear",
	"Finalizador", "Modelador", "Acessórios",
	"Kits e looks", "Boca", "Olhos", "Pincéis", "Paleta",
	"Unhas", "Sobrancelhas",
	"Hidratante", "Cuidados pós-banho", "Cuidados para o banho",
	"Barba", "Óleo corporal", "Cuidados íntimos", "Unissex",
	"Bronzeamento",
	"Protetor solar", "Depilação", "Mãos", "Lábios", "Pés",
	"Pós sol", "Protetor solar corporal",
	"Colônias", "Estojo", "Sabonetes", "Sabonete líquido",
	"Sabonete em barra",
	"Creme hidratante para as mãos",
	"Creme hidratante para os pés",
	"Miniseries", "Kits de perfumes", "Antissinais",
	"Máscara", "Creme bisnaga",
	"Roll On Fragranciado", "Roll On On Duty",
	"Shampoo 2 em 1", "Spray corporal",
	"Booster de Tratamento", "Creme para Pentear",
	"Óleo de Tratamento", "Pré-shampoo",
	"Sérum de Tratamento", "Shampoo e Condicionador",
	"Garrafas", "Armazenamentos", "Micro-ondas",
	"Servir", "Preparo",
	"Lazer/Outdoor", "Presentes", "Outro",
}

// Contains reports whether v is exactly one of values.
func Contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
