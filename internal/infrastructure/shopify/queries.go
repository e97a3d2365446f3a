package shopify

const orderByNameQuery = `query OrderByName($query: String!) {
  orders(first: 5, query: $query) {
    nodes {
      id
      name
      displayFinancialStatus
      totalPriceSet { shopMoney { amount currencyCode } }
    }
  }
}`

const returnableFulfillmentsQuery = `query ReturnableFulfillments($orderId: ID!) {
  returnableFulfillments(orderId: $orderId, first: 50) {
    nodes {
      id
      fulfillment { id }
      returnableFulfillmentLineItems(first: 50) {
        nodes {
          remainingQuantity
          fulfillmentLineItem { id }
        }
      }
    }
  }
}`

const returnCreateMutation = `mutation ReturnCreate($returnInput: ReturnInput!) {
  returnCreate(returnInput: $returnInput) {
    return {
      id
      returnLineItems(first: 50) {
        nodes {
          id
          quantity
          ... on ReturnLineItem { fulfillmentLineItem { id } }
        }
      }
    }
    userErrors { field message }
  }
}`

const returnSnapshotQuery = `query ReturnSnapshot($returnId: ID!, $orderId: ID!) {
  return(id: $returnId) {
    id
    returnLineItems(first: 50) {
      nodes {
        id
        quantity
        ... on ReturnLineItem { fulfillmentLineItem { id } }
      }
    }
    reverseFulfillmentOrders(first: 10) {
      nodes {
        id
        lineItems(first: 50) {
          nodes {
            id
            totalQuantity
            fulfillmentLineItem { id }
          }
        }
      }
    }
  }
  order(id: $orderId) {
    fulfillmentOrders(first: 10) {
      nodes {
        id
        assignedLocation { location { id } }
      }
    }
  }
}`

const returnProcessMutation = `mutation ReturnProcess($input: ReturnProcessInput!) {
  returnProcess(input: $input) {
    return { id status }
    userErrors { field message }
  }
}`
